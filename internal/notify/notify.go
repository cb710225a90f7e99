// Package notify defines the operator-facing notification boundary. The UI
// consumes these as toasts; the backend only guarantees delivery to a sink.
package notify

import "github.com/rs/zerolog/log"

// Kind classifies a notification for presentation.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// Notification is a user-facing message about a lifecycle action or a sync
// anomaly (e.g. an order whose category could not be resolved).
type Notification struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Sink receives notifications. Implementations must not block the caller.
type Sink interface {
	Notify(n Notification)
}

// LogSink writes notifications to the structured log. It is the default sink;
// real-time sync failures are expected to self-heal, so a non-blocking
// warning log is all the operator sees for them.
type LogSink struct{}

func (LogSink) Notify(n Notification) {
	ev := log.Info()
	switch n.Kind {
	case Error:
		ev = log.Error()
	case Warning:
		ev = log.Warn()
	}
	ev.Str("kind", string(n.Kind)).Str("title", n.Title).Msg(n.Message)
}
