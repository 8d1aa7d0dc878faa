package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// LogSender stands in for the chat transport when none is wired. It
// records the reply instead of delivering it.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("dispatch.sender")}
}

func (s *LogSender) Reply(ctx context.Context, chatID int64, text string) error {
	s.log.Info("reply delivered",
		zap.Int64("chat_id", chatID),
		zap.Int("text_len", len(text)),
	)
	return nil
}

var _ Sender = (*LogSender)(nil)
