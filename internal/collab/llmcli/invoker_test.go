package llmcli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_WrapperFields(t *testing.T) {
	tests := []struct {
		name          string
		rawOutput     string
		wantContent   string
		wantSessionID string
	}{
		{
			name:          "content field with session id",
			rawOutput:     `{"content":"Hello World","error":"","session_id":"abc-123"}`,
			wantContent:   "Hello World",
			wantSessionID: "abc-123",
		},
		{
			name:        "content field without session id",
			rawOutput:   `{"content":"Task completed","error":""}`,
			wantContent: "Task completed",
		},
		{
			name:          "structured_output takes precedence",
			rawOutput:     `{"type":"result","session_id":"test-123","structured_output":{"status":"success","summary":"Done"}}`,
			wantContent:   `{"status":"success","summary":"Done"}`,
			wantSessionID: "test-123",
		},
		{
			name:          "null structured_output falls through to content",
			rawOutput:     `{"type":"result","content":"Via content field","session_id":"test-789","structured_output":null}`,
			wantContent:   "Via content field",
			wantSessionID: "test-789",
		},
		{
			name:          "empty structured_output falls through to content",
			rawOutput:     `{"type":"result","content":"Via content field","session_id":"test-abc","structured_output":{}}`,
			wantContent:   "Via content field",
			wantSessionID: "test-abc",
		},
		{
			name:          "result field",
			rawOutput:     `{"type":"result","result":"Agent response text","session_id":"result-123"}`,
			wantContent:   "Agent response text",
			wantSessionID: "result-123",
		},
		{
			name:          "nested JSON inside content survives",
			rawOutput:     `{"content":"{\"nested\":\"value\"}","session_id":"nested-123"}`,
			wantContent:   `{"nested":"value"}`,
			wantSessionID: "nested-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, sessionID, err := ParseResponse([]byte(tt.rawOutput))
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, content)
			assert.Equal(t, tt.wantSessionID, sessionID)
		})
	}
}

func TestParseResponse_FallbackExtraction(t *testing.T) {
	tests := []struct {
		name        string
		rawOutput   string
		wantContent string
	}{
		{
			name:        "code-fenced JSON",
			rawOutput:   "Here is the result:\n```json\n{\"status\":\"success\"}\n```\n",
			wantContent: `{"status":"success"}`,
		},
		{
			name:        "error prefix before wrapper JSON",
			rawOutput:   "Error: some warning\n" + `{"content":"Result","session_id":"mixed-456"}`,
			wantContent: "Result",
		},
		{
			name:        "raw JSON without wrapper",
			rawOutput:   `{"status":"success","summary":"Task done","output":"Created file"}`,
			wantContent: `{"status":"success","summary":"Task done","output":"Created file"}`,
		},
		{
			name:        "prose before raw JSON",
			rawOutput:   "Some prose before the JSON response\n{\"status\":\"success\"}",
			wantContent: `{"status":"success"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, _, err := ParseResponse([]byte(tt.rawOutput))
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, content)
		})
	}
}

func TestParseResponse_NoUsableJSON(t *testing.T) {
	for _, raw := range []string{
		"Plain text output without JSON",
		"",
		`{"status":"success`, // no closing brace
		`{`,
		`}`,
	} {
		content, sessionID, err := ParseResponse([]byte(raw))
		require.NoError(t, err, "input: %q", raw)
		assert.Empty(t, content, "input: %q", raw)
		assert.Empty(t, sessionID, "input: %q", raw)
	}
}

func TestNewInvoker_Defaults(t *testing.T) {
	inv := NewInvoker()
	require.NotNil(t, inv)
	assert.Equal(t, "claude", inv.ClaudePath)
	assert.Equal(t, DefaultSystemPrompt, inv.SystemPrompt)
	assert.Empty(t, inv.Model)
}

func TestNewClient_ConfiguresInvoker(t *testing.T) {
	c := NewClient("/usr/local/bin/claude", 5*time.Minute, nil).WithModel("some-model")
	inv := c.Invoker()
	require.NotNil(t, inv)
	assert.Equal(t, "/usr/local/bin/claude", inv.ClaudePath)
	assert.Equal(t, 5*time.Minute, inv.Timeout)
	assert.Equal(t, "some-model", inv.Model)

	// Empty path keeps the PATH default.
	assert.Equal(t, "claude", NewClient("", time.Minute, nil).Invoker().ClaudePath)
}

func TestDefaultSystemPrompt_EnforcesJSONOnly(t *testing.T) {
	require.NotEmpty(t, DefaultSystemPrompt)
	assert.Contains(t, DefaultSystemPrompt, "JSON")
	assert.Contains(t, DefaultSystemPrompt, "No markdown")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON("prefix {\"a\":1} suffix"))
	assert.Equal(t, `{"outer":{"inner":2}}`, ExtractJSON(`{"outer":{"inner":2}}`))
	assert.Empty(t, ExtractJSON("no braces here"))
	assert.Empty(t, ExtractJSON("}{")) // closing before opening
}
