package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
)

// Setup configures the global zerolog logger from LOG_LEVEL, LOG_FORMAT and
// LOG_FILE and returns it.
func Setup(c map[string]string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if strings.EqualFold(config.GetString(c, "LOG_FORMAT", "json"), "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	if path := config.GetString(c, "LOG_FILE", ""); path != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    config.GetInt(c, "LOG_FILE_MAX_MB", 50),
			MaxBackups: config.GetInt(c, "LOG_FILE_MAX_BACKUPS", 5),
			MaxAge:     config.GetInt(c, "LOG_FILE_MAX_AGE_DAYS", 28),
			Compress:   true,
		})
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
