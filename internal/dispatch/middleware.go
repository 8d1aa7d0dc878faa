package dispatch

import (
	"context"
	"errors"
	"fmt"

	accountdomain "github.com/smallbiznis/lendora/internal/account/domain"
	"github.com/smallbiznis/lendora/internal/authorization"
	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	orderdomain "github.com/smallbiznis/lendora/internal/order/domain"
	"go.uber.org/zap"
)

// Recover converts handler panics and errors into one uniform failure
// reply, so a broken handler can never leave the operator without an
// answer. Checks must run inside it, hence it is always outermost.
func Recover(log *zap.Logger, sender Sender) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panicked",
						zap.Any("panic", r),
						zap.String("kind", string(ev.Kind)),
						zap.Int64("chat_id", ev.ChatID),
					)
					err = fmt.Errorf("handler panic: %v", r)
					_ = sender.Reply(ctx, ev.ChatID, failureReply(err))
				}
			}()

			if err = next(ctx, ev); err != nil {
				log.Warn("event rejected",
					zap.String("kind", string(ev.Kind)),
					zap.Int64("chat_id", ev.ChatID),
					zap.Int64("operator_id", ev.OperatorID),
					zap.Error(err),
				)
				_ = sender.Reply(ctx, ev.ChatID, failureReply(err))
			}
			return err
		}
	}
}

// RequireAuthorized drops events from unknown operators before any
// handler side effect. Unauthorized traffic is ignored silently, matching
// the bot's behavior in busy group chats.
func RequireAuthorized(auth *authorization.Service, log *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev Event) error {
			ok, err := auth.IsAuthorized(ctx, ev.OperatorID)
			if err != nil {
				return err
			}
			if !ok {
				log.Debug("ignoring event from unauthorized operator",
					zap.Int64("operator_id", ev.OperatorID),
				)
				return nil
			}
			return next(ctx, ev)
		}
	}
}

// RequireGroupChat silently ignores events outside group chats.
func RequireGroupChat() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev Event) error {
			if ev.ChatType != ChatGroup {
				return nil
			}
			return next(ctx, ev)
		}
	}
}

// RequirePrivateChat silently ignores events outside private chats.
func RequirePrivateChat() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev Event) error {
			if ev.ChatType != ChatPrivate {
				return nil
			}
			return next(ctx, ev)
		}
	}
}

// failureReply maps domain sentinels to operator-facing failure text.
func failureReply(err error) string {
	switch {
	case errors.Is(err, orderdomain.ErrNotFound):
		return "Failed: no active order in this group."
	case errors.Is(err, orderdomain.ErrActiveOrderExists):
		return "Failed: this group already has an active order."
	case errors.Is(err, orderdomain.ErrPreconditionFailed):
		return "Failed: order state does not allow this operation."
	case errors.Is(err, orderdomain.ErrInvalidAmount):
		return "Failed: amount must be a positive number."
	case errors.Is(err, authorization.ErrAdminOnly):
		return "Failed: only admins may manage operators."
	case errors.Is(err, authorization.ErrNotAuthorized):
		return "Failed: operator has no runtime grant."
	case errors.Is(err, accountdomain.ErrNotFound):
		return "Failed: payment account not found."
	case errors.Is(err, accountdomain.ErrInvalidType):
		return "Failed: unknown account type."
	case errors.Is(err, broadcastdomain.ErrSlotOutOfRange):
		return "Failed: broadcast slot must be 1-3."
	case errors.Is(err, broadcastdomain.ErrSlotNotFound):
		return "Failed: broadcast slot is not configured."
	case errors.Is(err, broadcastdomain.ErrInvalidTime):
		return "Failed: time must be HH or HH:MM on a 24-hour clock."
	case errors.Is(err, broadcastdomain.ErrEmptyMessage):
		return "Failed: broadcast message must not be empty."
	default:
		return "Failed: an error occurred."
	}
}
