package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Router matches events to handlers. Commands match by name, callbacks by
// payload prefix, free text falls through to a single text handler that
// consults the operator's session.
type Router struct {
	log *zap.Logger

	commands        map[string]Handler
	callbackPrefix  []string
	callbackHandler map[string]Handler
	textHandler     Handler
}

func NewRouter(log *zap.Logger) *Router {
	return &Router{
		log:             log.Named("dispatch.router"),
		commands:        make(map[string]Handler),
		callbackHandler: make(map[string]Handler),
	}
}

func (r *Router) Command(name string, h Handler) {
	r.commands[name] = h
}

func (r *Router) CallbackPrefix(prefix string, h Handler) {
	r.callbackPrefix = append(r.callbackPrefix, prefix)
	r.callbackHandler[prefix] = h
}

func (r *Router) Text(h Handler) {
	r.textHandler = h
}

// Dispatch routes one event. Unmatched events are dropped quietly; group
// chats are full of traffic that is not addressed to the assistant.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case KindCommand:
		if h, ok := r.commands[ev.Command]; ok {
			return h(ctx, ev)
		}
		r.log.Debug("unknown command", zap.String("command", ev.Command))
		return nil
	case KindCallback:
		for _, prefix := range r.callbackPrefix {
			if strings.HasPrefix(ev.CallbackData, prefix) {
				return r.callbackHandler[prefix](ctx, ev)
			}
		}
		r.log.Debug("unknown callback", zap.String("data", ev.CallbackData))
		return nil
	case KindText:
		if r.textHandler != nil {
			return r.textHandler(ctx, ev)
		}
		return nil
	default:
		return nil
	}
}
