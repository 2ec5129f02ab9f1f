package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-rollup/components/rollup"
	"github.com/goliatone/go-rollup/components/rollup/httpapi"
)

type serveCmd struct {
	SourceFlags `embed:""`
	Addr        string `default:":8080" help:"Listen address."`
}

func (cmd *serveCmd) Run(ctx context.Context, logger *slog.Logger) error {
	doc, err := cmd.load()
	if err != nil {
		return err
	}
	service, err := cmd.service()
	if err != nil {
		return err
	}
	handler, page, err := newServer(ctx, *doc, service, cmd.Timeout, logger)
	if err != nil {
		return err
	}
	defer page.Close()

	srv := &http.Server{Addr: cmd.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving rollups", slog.String("addr", cmd.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("rollupctl: serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// newServer builds a page with one grid for doc and mounts the HTTP API with
// SSE and WebSocket snapshot streams.
func newServer(ctx context.Context, doc rollup.ConfigDocument, service rollup.AggregationService, timeout time.Duration, logger *slog.Logger) (http.Handler, *rollup.Page, error) {
	page := rollup.NewPage(nil)
	stream := rollup.NewBroadcastHook(page)
	grids, err := rollup.Bootstrap(ctx, page, []rollup.ConfigDocument{doc}, rollup.Options{
		Service: service,
		Hook:    stream,
		Logger:  logger,
		Timeout: timeout,
	})
	if err != nil && len(grids) == 0 {
		_ = page.Close()
		return nil, nil, err
	}
	if err != nil {
		logger.Warn("bootstrap reported errors", slog.Any("error", err))
	}
	mux := http.NewServeMux()
	httpapi.NewHandlers(rollup.NewController(page), stream, nil).Register(mux)
	return mux, page, nil
}
