package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"

	"prompter/internal/logging"
)

const (
	DefaultCLIPath = "claude"
	maxLineSize    = 1024 * 1024
	maxStderrSize  = 16 * 1024
)

// CLIOptions configures the local CLI backend.
type CLIOptions struct {
	Path    string
	Model   string
	WorkDir string
	Timeout time.Duration
	// ArgsFunc overrides the argument list built for each call.
	ArgsFunc func(prompt, systemInstruction string) []string
}

// CLIClient runs a Claude-compatible CLI in print mode and reads its
// stream-json output.
type CLIClient struct {
	opts CLIOptions
}

func NewCLIClient(opts CLIOptions) *CLIClient {
	if strings.TrimSpace(opts.Path) == "" {
		opts.Path = DefaultCLIPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &CLIClient{opts: opts}
}

// Options returns the effective options after defaults were applied.
func (c *CLIClient) Options() CLIOptions {
	return c.opts
}

func (c *CLIClient) args(prompt, systemInstruction string) []string {
	if c.opts.ArgsFunc != nil {
		return c.opts.ArgsFunc(prompt, systemInstruction)
	}
	args := []string{
		"--print",
		"--output-format", "stream-json",
		"--verbose",
	}
	if c.opts.Model != "" {
		args = append(args, "--model", c.opts.Model)
	}
	if s := strings.TrimSpace(systemInstruction); s != "" {
		args = append(args, "--system-prompt", s)
	}
	return append(args, prompt)
}

func (c *CLIClient) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	return c.run(ctx, prompt, systemInstruction, nil)
}

func (c *CLIClient) Stream(ctx context.Context, prompt, systemInstruction string, onChunk func(chunk string)) (string, error) {
	return c.run(ctx, prompt, systemInstruction, onChunk)
}

// cliEvent is the subset of a stream-json line this client reads.
type cliEvent struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	Result  string `json:"result,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Message *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message,omitempty"`
}

// parseStreamLine decodes one output line. It returns the assistant text it
// carries, and for the final result line the aggregate text.
func parseStreamLine(line []byte) (text string, final *cliEvent, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", nil, nil
	}
	var evt cliEvent
	if err := json.Unmarshal(line, &evt); err != nil {
		return "", nil, err
	}
	switch evt.Type {
	case "assistant":
		if evt.Message == nil {
			return "", nil, nil
		}
		var sb strings.Builder
		for _, block := range evt.Message.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		return sb.String(), nil, nil
	case "result":
		return "", &evt, nil
	default:
		return "", nil, nil
	}
}

func (c *CLIClient) run(ctx context.Context, prompt, systemInstruction string, onChunk func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.opts.Path, c.args(prompt, systemInstruction)...)
	if c.opts.WorkDir != "" {
		cmd.Dir = c.opts.WorkDir
	}
	cmd.WaitDelay = 500 * time.Millisecond

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", newError(ErrorProcess, "failed to create stdout pipe", err)
	}
	stderr := &limitedBuffer{limit: maxStderrSize}
	cmd.Stderr = stderr

	logger := logging.From(ctx)
	logger.Debug("starting CLI backend", "path", c.opts.Path, "model", c.opts.Model)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", newError(ErrorNotFound, "CLI "+c.opts.Path+" not found", err)
		}
		return "", ClassifyError(err)
	}

	var (
		streamed strings.Builder
		final    *cliEvent
		parseErr error
	)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		text, result, err := parseStreamLine(scanner.Bytes())
		if err != nil {
			logger.Debug("skipping unreadable CLI output line", "error", err)
			parseErr = err
			continue
		}
		if text != "" {
			streamed.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		}
		if result != nil {
			final = result
		}
	}
	scanErr := scanner.Err()
	// Drain anything left so Wait does not block on a full pipe.
	_, _ = io.Copy(io.Discard, stdout)

	if waitErr := cmd.Wait(); waitErr != nil {
		logger.Debug("CLI backend exited", "error", waitErr, "stderr", stderr.String())
		if ctx.Err() != nil {
			return "", classifyWithContext(ctx, ctx.Err())
		}
		genErr := &GenerationError{
			Kind:    ErrorProcess,
			Message: "CLI exited with an error",
			Stderr:  strings.TrimSpace(stderr.String()),
			Cause:   waitErr,
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			genErr.ExitCode = exitErr.ExitCode()
		}
		return "", genErr
	}
	if scanErr != nil {
		return "", newError(ErrorParse, "failed to read CLI output", scanErr)
	}

	if final != nil {
		if final.IsError {
			return "", &GenerationError{Kind: ErrorProcess, Message: strings.TrimSpace(final.Result), Stderr: strings.TrimSpace(stderr.String())}
		}
		if strings.TrimSpace(final.Result) != "" {
			return final.Result, nil
		}
	}
	if strings.TrimSpace(streamed.String()) != "" {
		return streamed.String(), nil
	}
	if parseErr != nil {
		return "", newError(ErrorParse, "malformed CLI output", parseErr)
	}
	return "", newError(ErrorParse, "CLI produced no output", nil)
}

// limitedBuffer keeps the first limit bytes written to it.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
