// Package logger builds the process-wide structured logger every command
// and service in this module shares.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger configured for JSON output with an
// RFC3339 timestamp, suitable for both local development (env=dev gets
// a text formatter instead) and production log aggregation.
func New(env string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if env == "dev" || env == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
