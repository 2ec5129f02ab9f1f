package rollup

import (
	core "github.com/goliatone/go-rollup/components/rollup"
)

// Grid exposes the underlying components/rollup.Grid type.
type Grid = core.Grid

// Options re-export for convenience.
type Options = core.Options

// Page re-export for hosts rendering several grids together.
type Page = core.Page

// GridConfig re-export.
type GridConfig = core.GridConfig

// TileConfig re-export.
type TileConfig = core.TileConfig

// ConfigDocument re-export.
type ConfigDocument = core.ConfigDocument

// AggregationService re-export.
type AggregationService = core.AggregationService

// AggregateRequest re-export.
type AggregateRequest = core.AggregateRequest

// AggregateResponse re-export.
type AggregateResponse = core.AggregateResponse

// NewGrid proxies to the internal constructor.
func NewGrid(opts Options) (*Grid, error) {
	return core.NewGrid(opts)
}

// NewPage proxies to the internal constructor with an in-process bus.
func NewPage() *Page {
	return core.NewPage(nil)
}
