package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goliatone/go-rollup/components/rollup"
)

type validateCmd struct {
	SourceFlags `embed:""`
}

func (cmd *validateCmd) Run(_ context.Context) error {
	doc, err := cmd.load()
	if err != nil {
		return err
	}
	return reportIssues(os.Stdout, *doc)
}

func reportIssues(w io.Writer, doc rollup.ConfigDocument) error {
	issues := doc.Issues()
	if len(issues) == 0 {
		_, _ = fmt.Fprintf(w, "✓ %d tile(s) ready to load\n", doc.GridConfig().SlotCount())
		return nil
	}
	for _, issue := range issues {
		_, _ = fmt.Fprintf(w, "✗ %s\n", issue)
	}
	return fmt.Errorf("rollupctl: %d configuration issue(s)", len(issues))
}

type initCmd struct {
	Path      string `arg:"" type:"path" default:"rollup.yaml" help:"Destination file."`
	Overwrite bool   `help:"Replace the file if it already exists."`
}

func (cmd *initCmd) Run(_ context.Context) error {
	if err := writeStarter(cmd.Path, cmd.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Wrote %s\n", cmd.Path)
	return nil
}

func writeStarter(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("rollupctl: %s already exists (use --overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("rollupctl: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("rollupctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("rollupctl: create %s: %w", path, err)
	}
	defer file.Close()
	return rollup.EncodeConfig(file, starterDocument())
}

func starterDocument() rollup.ConfigDocument {
	return rollup.ConfigDocument{
		RecordID:          "001000000000001",
		ChildObject:       "Opportunity",
		RelationshipField: "AccountId",
		Rows:              "1",
		Columns:           "3",
		Variant:           rollup.VariantMedium,
		Header:            "Opportunity rollups",
		ShowRefreshButton: true,
		Tiles: []rollup.TileDocument{
			{Index: 1, Label: "Pipeline", Field: "Amount", Aggregation: "SUM"},
			{Index: 2, Label: "Deals", Field: "Amount", Aggregation: "COUNT"},
			{Index: 3, Label: "Latest close", Field: "CloseDate", Aggregation: "MAX"},
		},
	}
}
