package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNodeReportProgressIsMonotonic(t *testing.T) {
	n := &Node{ID: "n1"}

	n.Report(30, "warming up")
	n.Report(10, "stale update")
	n.Report(70, "")

	st := n.State()
	assert.Equal(t, 70, st.Progress)
	// An empty task keeps the previous one.
	assert.Equal(t, "warming up", st.CurrentTask)
}

func TestNodeStateIsACopy(t *testing.T) {
	n := &Node{ID: "n1", state: State{Status: StatusIdle}}
	n.AppendLog(LogLine{Text: "first", Class: "plain"})

	st := n.State()
	st.Logs[0].Text = "tampered"
	st.Status = StatusError

	fresh := n.State()
	assert.Equal(t, "first", fresh.Logs[0].Text)
	assert.Equal(t, StatusIdle, fresh.Status)
}

func TestNodeCountersAndTiming(t *testing.T) {
	n := &Node{ID: "n1"}
	n.AddCall()
	n.AddCall()
	n.SetExecTime(150 * time.Millisecond)

	st := n.State()
	assert.Equal(t, 2, st.CallsCount)
	assert.Equal(t, 150*time.Millisecond, st.ExecTime)

	n.ResetState()
	st = n.State()
	assert.Zero(t, st.CallsCount)
	assert.Zero(t, st.ExecTime)
}
