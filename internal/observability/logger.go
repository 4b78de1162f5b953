package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger tags the process-wide logger with the application name. Output
// shape and level are owned by internal/logging.
func InitLogger(app string) zerolog.Logger {
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
