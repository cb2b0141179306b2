package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrorKind classifies generation failures for user-facing messages. The
// orchestrator treats every kind the same way.
type ErrorKind string

const (
	ErrorNotFound ErrorKind = "not_found" // executable or credentials missing
	ErrorNetwork  ErrorKind = "network"
	ErrorProcess  ErrorKind = "process" // non-zero exit or error reported by the backend
	ErrorParse    ErrorKind = "parse"   // malformed or empty response
	ErrorTimeout  ErrorKind = "timeout"
)

// GenerationError is the error type returned by every Generator.
type GenerationError struct {
	Kind     ErrorKind
	Message  string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind of a classified error.
func KindOf(err error) (ErrorKind, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind, true
	}
	return "", false
}

// ClassifyError maps a raw backend error onto the taxonomy. Cancellation is
// returned unchanged since it is not a failure.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var (
		exitErr   *exec.ExitError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		netErr    net.Error
		urlErr    *url.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(ErrorTimeout, "generation timed out", err)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return newError(ErrorNotFound, "backend executable not found", err)
	case errors.As(err, &exitErr):
		return &GenerationError{
			Kind:     ErrorProcess,
			Message:  "backend process failed",
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(string(exitErr.Stderr)),
			Cause:    err,
		}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return newError(ErrorParse, "malformed backend response", err)
	case errors.As(err, &netErr), errors.As(err, &urlErr):
		if netErr != nil && netErr.Timeout() {
			return newError(ErrorTimeout, "generation timed out", err)
		}
		return newError(ErrorNetwork, "backend unreachable", err)
	default:
		return newError(ErrorNetwork, "backend request failed", err)
	}
}

// classifyWithContext prefers the context's verdict: a call that failed
// after its deadline passed is a timeout whatever the transport said.
func classifyWithContext(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(ErrorTimeout, "generation timed out", err)
	}
	return ClassifyError(err)
}

// MissingCredentials reports that no API key is set for provider.
func MissingCredentials(provider string, cause error) error {
	if cause == nil {
		cause = goerr.New("missing credentials", goerr.V("provider", provider))
	}
	return newError(ErrorNotFound, "API key for "+provider+" is not configured", cause)
}

// NotConfigured reports a backend or model that cannot be used as configured.
func NotConfigured(message string, cause error) error {
	return newError(ErrorNotFound, message, cause)
}

// UserMessage renders err for display next to a failed history record.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		return err.Error()
	}
	switch genErr.Kind {
	case ErrorNotFound:
		if genErr.Message != "" {
			return genErr.Message
		}
		return "The generation backend is not installed or not configured."
	case ErrorNetwork:
		return "Could not reach the generation backend. Check your connection and try again."
	case ErrorProcess:
		if genErr.Stderr != "" {
			return "The generation backend failed: " + genErr.Stderr
		}
		if genErr.Message != "" {
			return "The generation backend failed: " + genErr.Message
		}
		return "The generation backend failed."
	case ErrorParse:
		return "The generation backend returned a response that could not be read."
	case ErrorTimeout:
		return "The generation took too long and was stopped."
	default:
		return genErr.Error()
	}
}
