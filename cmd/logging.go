package cmd

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// configureLogging applies the configured level and format to the global logger
func configureLogging(level, format string) error {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q: use text or json", format)
	}
	return nil
}
