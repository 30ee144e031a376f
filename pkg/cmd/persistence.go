// Package cmd provides shared constructors for the command-line
// entrypoints.
package cmd

import (
	"log/slog"
	"strings"

	"github.com/gestia/automate/pkg/persistence"
	"github.com/gestia/automate/pkg/persistence/file"
	redisstore "github.com/gestia/automate/pkg/persistence/redis"
)

// NewStore builds a persistence store from a connection URL. The
// scheme selects the backend: redis:// for Redis, anything else is
// treated as a file root.
func NewStore(databaseURL string, logger *slog.Logger) persistence.Store {
	switch {
	case strings.HasPrefix(databaseURL, "redis://"):
		store, err := redisstore.NewStore(databaseURL)
		if err != nil {
			logger.Error("Failed to create redis store", "error", err)
			panic(err)
		}

		return store
	default:
		return file.NewStore(databaseURL)
	}
}
