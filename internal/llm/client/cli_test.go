package client

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStreamLine(t *testing.T) {
	text, final, err := parseStreamLine([]byte(`{"type":"assistant","message":{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"world"}]}}`))
	require.NoError(t, err)
	assert.Nil(t, final)
	assert.Equal(t, "Hello world", text)

	text, final, err = parseStreamLine([]byte(`{"type":"result","subtype":"success","result":"Hello world"}`))
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Empty(t, text)
	assert.Equal(t, "Hello world", final.Result)

	text, final, err = parseStreamLine([]byte(`{"type":"system","subtype":"init"}`))
	require.NoError(t, err)
	assert.Nil(t, final)
	assert.Empty(t, text)

	_, _, err = parseStreamLine([]byte("   "))
	assert.NoError(t, err)

	_, _, err = parseStreamLine([]byte("{not json"))
	assert.Error(t, err)
}

func TestCLIClient_DefaultArgs(t *testing.T) {
	c := NewCLIClient(CLIOptions{Model: "sonnet"})
	args := c.args("idea", " be brief ")
	assert.Equal(t, []string{
		"--print", "--output-format", "stream-json", "--verbose",
		"--model", "sonnet",
		"--system-prompt", "be brief",
		"idea",
	}, args)
	assert.Equal(t, DefaultCLIPath, c.opts.Path)
	assert.Equal(t, DefaultTimeout, c.opts.Timeout)
}

func shellClient(t *testing.T, script string, timeout time.Duration) *CLIClient {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return NewCLIClient(CLIOptions{
		Path:    sh,
		Timeout: timeout,
		ArgsFunc: func(string, string) []string {
			return []string{"-c", script}
		},
	})
}

func TestCLIClient_StreamsAndReturnsResult(t *testing.T) {
	c := shellClient(t, `
echo '{"type":"system","subtype":"init"}'
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"Recursion "}]}}'
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"is..."}]}}'
echo '{"type":"result","subtype":"success","result":"Recursion is..."}'
`, 5*time.Second)

	var chunks []string
	out, err := c.Stream(context.Background(), "Explain recursion", "", func(s string) {
		chunks = append(chunks, s)
	})
	require.NoError(t, err)
	assert.Equal(t, "Recursion is...", out)
	assert.Equal(t, []string{"Recursion ", "is..."}, chunks)
}

func TestCLIClient_NonZeroExitIsProcessError(t *testing.T) {
	c := shellClient(t, `echo "rate limited" >&2; exit 3`, 5*time.Second)

	_, err := c.Generate(context.Background(), "idea", "")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, ErrorProcess, genErr.Kind)
	assert.Equal(t, 3, genErr.ExitCode)
	assert.Equal(t, "rate limited", genErr.Stderr)
}

func TestCLIClient_ResultErrorIsProcessError(t *testing.T) {
	c := shellClient(t, `echo '{"type":"result","subtype":"error","is_error":true,"result":"invalid api key"}'`, 5*time.Second)

	_, err := c.Generate(context.Background(), "idea", "")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, ErrorProcess, genErr.Kind)
	assert.Equal(t, "invalid api key", genErr.Message)
}

func TestCLIClient_GarbageOutputIsParseError(t *testing.T) {
	c := shellClient(t, `echo 'not json at all'`, 5*time.Second)

	_, err := c.Generate(context.Background(), "idea", "")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorParse, kind)
}

func TestCLIClient_TimeoutKillsProcess(t *testing.T) {
	c := shellClient(t, `sleep 5`, 50*time.Millisecond)

	start := time.Now()
	_, err := c.Generate(context.Background(), "idea", "")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTimeout, kind)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCLIClient_CancelReturnsContextError(t *testing.T) {
	c := shellClient(t, `sleep 5`, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.Generate(ctx, "idea", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCLIClient_MissingExecutable(t *testing.T) {
	c := NewCLIClient(CLIOptions{Path: "prompter-cli-that-does-not-exist"})

	_, err := c.Generate(context.Background(), "idea", "")
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, kind)
}
