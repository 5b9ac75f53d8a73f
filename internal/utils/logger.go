package utils

import (
	"fmt" // Error wrapping

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SetupLogger configures the global logrus logger
func SetupLogger(level string, isProd bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(lvl)
	if isProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable in production
		return nil
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
