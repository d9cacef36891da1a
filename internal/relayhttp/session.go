package relayhttp

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionLogger tags the logger with the channel name and a fresh session
// id so one stream's lifecycle can be followed across log lines.
func (s *Server) sessionLogger(channel string) *zap.Logger {
	return s.log.With(
		zap.String("channel", channel),
		zap.String("session", uuid.NewString()),
	)
}
