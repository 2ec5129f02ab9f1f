package rollup

import (
	"context"
	"errors"
	"fmt"
)

// NewGridFromDocument builds a grid for doc. When page is nil the grid is
// standalone, without a bus.
func NewGridFromDocument(page *Page, doc ConfigDocument, opts Options) (*Grid, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	opts.Config = doc.GridConfig()
	if page == nil {
		return NewGrid(opts)
	}
	return page.NewGrid(opts)
}

// Bootstrap creates one grid per document on page and starts their initial
// loads. Grids that fail to build are skipped and reported in the joined error.
func Bootstrap(ctx context.Context, page *Page, docs []ConfigDocument, opts Options) ([]*Grid, error) {
	if page == nil {
		return nil, errors.New("rollup: page is required to bootstrap grids")
	}
	var (
		grids   []*Grid
		bootErr error
	)
	for idx, doc := range docs {
		grid, err := NewGridFromDocument(page, doc, opts)
		if err != nil {
			bootErr = errors.Join(bootErr, fmt.Errorf("rollup: grid %d (%s): %w", idx+1, doc.Source, err))
			continue
		}
		if err := grid.RefreshAll(ctx); err != nil {
			bootErr = errors.Join(bootErr, err)
		}
		grids = append(grids, grid)
	}
	return grids, bootErr
}
