package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/mockapi"
)

// serveCommand runs the local task collection until ctx is cancelled.
func serveCommand(ctx context.Context, cws *config.ConfigWithSources, streams Streams, args []string) error {
	cfg := cws.Config
	fs := flag.NewFlagSet("tasklist serve", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	addr := fs.String("addr", cfg.Server.Addr, "Listen address")
	dbPath := fs.String("db", cfg.Server.DBPath, "bbolt database file (empty keeps tasks in memory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logger := newLogger(cws, streams.Err)

	var store mockapi.Store
	if *dbPath != "" {
		bolt, err := mockapi.OpenBoltStore(*dbPath)
		if err != nil {
			return fmt.Errorf("opening task database: %w", err)
		}
		logger.Info("Using task database", "path", *dbPath)
		store = bolt
	} else {
		store = mockapi.NewMemoryStore()
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Closing task store failed", "err", err)
		}
	}()

	srv := mockapi.NewServer(store, mockapi.WithLogger(logger))
	return srv.ListenAndServe(ctx, *addr, nil)
}
