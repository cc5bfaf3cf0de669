package llm

import (
	"fmt"
	"io"
	"time"
)

// CallEvent records metadata about a single gateway invocation.
type CallEvent struct {
	Task      TaskType
	Provider  Provider
	Model     string
	Attempts  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about LLM traffic for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
	OnWarning(scope, message string)
}

// LogObserver writes events to an io.Writer, one line per event.
type LogObserver struct {
	w io.Writer
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{w: w}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	ts := time.Now().UTC().Format(time.RFC3339)
	status := "ok"
	if !event.Success {
		status = "err:" + event.ErrorCode
	}
	fmt.Fprintf(o.w, "[%s] llm_call task=%s provider=%s model=%s attempts=%d latency_ms=%d status=%s\n",
		ts, event.Task, event.Provider, event.Model, event.Attempts, event.LatencyMs, status)
}

func (o *LogObserver) OnWarning(scope, message string) {
	ts := time.Now().UTC().Format(time.RFC3339)
	fmt.Fprintf(o.w, "[%s] warning scope=%s msg=%q\n", ts, scope, message)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
func (NoopObserver) OnWarning(string, string) {}
