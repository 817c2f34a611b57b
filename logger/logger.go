package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the process-wide logrus logger. Output always goes to
// stdout; when LOG_FILE is set it is additionally written to a rotating
// file.
func Init() {
	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	writers := []io.Writer{os.Stdout}

	if file := os.Getenv("LOG_FILE"); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			logrus.WithError(err).Warn("could not create log directory")
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    envInt("LOG_MAX_SIZE", 100), // MB
			MaxAge:     envInt("LOG_MAX_AGE", 30),   // days
			MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
			LocalTime:  true,
			Compress:   true,
		})
	}

	logrus.SetOutput(io.MultiWriter(writers...))
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
