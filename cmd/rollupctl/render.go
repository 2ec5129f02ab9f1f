package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/goliatone/go-rollup/components/rollup"
)

type renderCmd struct {
	SourceFlags `embed:""`
	Format      string `default:"table" enum:"table,json" help:"Output format (table, json)."`
}

func (cmd *renderCmd) Run(ctx context.Context, logger *slog.Logger) error {
	doc, err := cmd.load()
	if err != nil {
		return err
	}
	service, err := cmd.service()
	if err != nil {
		return err
	}
	payload, err := renderOnce(ctx, *doc, service, cmd.Timeout, logger)
	if err != nil {
		return err
	}
	return writePayload(os.Stdout, payload, cmd.Format)
}

// renderOnce loads every tile of doc and returns the settled payload.
func renderOnce(ctx context.Context, doc rollup.ConfigDocument, service rollup.AggregationService, timeout time.Duration, logger *slog.Logger) (rollup.GridPayload, error) {
	page := rollup.NewPage(nil)
	defer page.Close()
	grid, err := rollup.NewGridFromDocument(page, doc, rollup.Options{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	})
	if err != nil {
		return rollup.GridPayload{}, err
	}
	if err := grid.RefreshAll(ctx); err != nil {
		return rollup.GridPayload{}, err
	}
	if err := grid.Wait(ctx); err != nil {
		return rollup.GridPayload{}, fmt.Errorf("rollupctl: waiting for tiles: %w", err)
	}
	return rollup.BuildPayload(grid), nil
}

func writePayload(w io.Writer, payload rollup.GridPayload, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if payload.Header != "" {
		t.SetTitle(payload.Header)
	}
	t.AppendHeader(table.Row{"#", "Aggregation", "Value", "Summary", "Status"})
	for _, tile := range payload.Tiles {
		status := tile.State.Status.String()
		if tile.View.HasError {
			status = fmt.Sprintf("%s (%s): %s", status, tile.State.ErrorKind, tile.State.Error)
		}
		t.AppendRow(table.Row{
			tile.Index(),
			string(tile.State.AggregateType),
			tile.View.DisplayValue,
			tile.View.SummaryLabel,
			status,
		})
	}
	t.Render()
	if payload.HelpText != "" {
		_, _ = fmt.Fprintln(w, payload.HelpText)
	}
	return nil
}
