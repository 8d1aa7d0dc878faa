package broadcast

import (
	"context"

	broadcastdomain "github.com/smallbiznis/lendora/internal/broadcast/domain"
	"go.uber.org/zap"
)

// LogSender stands in for the chat transport when none is wired. It
// records the delivery instead of performing it.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("broadcast.sender")}
}

func (s *LogSender) Send(ctx context.Context, chatID int64, message string) error {
	s.log.Info("broadcast delivered",
		zap.Int64("chat_id", chatID),
		zap.Int("message_len", len(message)),
	)
	return nil
}

var _ broadcastdomain.Sender = (*LogSender)(nil)
