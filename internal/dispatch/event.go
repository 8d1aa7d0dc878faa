package dispatch

import "context"

// Kind distinguishes the three inbound event shapes the router handles.
type Kind string

const (
	KindCommand  Kind = "command"
	KindText     Kind = "text"
	KindCallback Kind = "callback"
)

// ChatType mirrors where the event originated. Financial shortcuts are
// group-only; directory dialogues are private-only.
type ChatType string

const (
	ChatGroup   ChatType = "group"
	ChatPrivate ChatType = "private"
)

// Event is one inbound operator interaction, already stripped of any
// transport-specific envelope.
type Event struct {
	Kind       Kind
	ChatType   ChatType
	ChatID     int64
	ChatTitle  string
	OperatorID int64

	// Command and Args are set for KindCommand ("create", ["g-1", "A", "1000"]).
	Command string
	Args    []string

	// Text is the raw body for KindText.
	Text string

	// CallbackData is the button payload for KindCallback.
	CallbackData string
}

// Sender posts replies back to the chat that produced the event.
type Sender interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// Handler consumes one event. A returned error is translated into a
// uniform failure reply by the recovery middleware.
type Handler func(ctx context.Context, ev Event) error

// Middleware wraps a handler with a cross-cutting check.
type Middleware func(Handler) Handler

// Chain applies middlewares left to right, so the first listed runs
// outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
