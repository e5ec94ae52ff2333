package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected string
	}{
		{"tool call marker", "tool-call: fetch_weather(city='Oslo')", LogToolCall},
		{"artifact marker", "artifact: report.pdf", LogArtifact},
		{"result marker", "result: 42", LogResult},
		{"success marker", "success: all checks passed", LogSuccess},
		{"question marker", "question: proceed with deletion?", LogQuestion},
		{"notification marker", "notification: queue drained", LogNotification},
		{"error marker", "error: connection refused", LogError},
		{"leading whitespace before marker", "   result: 42", LogResult},
		{"marker without colon is plain", "result 42", LogPlain},
		{"marker mid-line is plain", "the result: 42", LogPlain},
		{"unknown marker is plain", "debug: something", LogPlain},
		{"plain line", "hello world", LogPlain},
		{"empty line", "", LogPlain},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.line))
		})
	}
}
