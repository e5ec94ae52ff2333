package script

import "strings"

// Log line classes. Classification is a pure function of the line's
// leading marker, used downstream for display; it never affects control
// flow.
const (
	LogToolCall     = "tool-call"
	LogArtifact     = "artifact"
	LogResult       = "result"
	LogSuccess      = "success"
	LogQuestion     = "question"
	LogNotification = "notification"
	LogError        = "error"
	LogPlain        = "plain"
)

var markers = []string{
	LogToolCall,
	LogArtifact,
	LogResult,
	LogSuccess,
	LogQuestion,
	LogNotification,
	LogError,
}

// Classify returns the semantic class of one output line based on its
// leading "<marker>:" prefix. Lines without a known marker are plain.
func Classify(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	for _, m := range markers {
		if strings.HasPrefix(trimmed, m+":") {
			return m
		}
	}
	return LogPlain
}
