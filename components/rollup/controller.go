package rollup

import (
	"context"
	"fmt"
)

// GridPayload is the render-ready description of one grid handed to the host
// renderer or serialized by the transports.
type GridPayload struct {
	InstanceID        int    `json:"instanceId"`
	RecordID          string `json:"recordId"`
	Header            string `json:"header,omitempty"`
	HelpText          string `json:"helpText,omitempty"`
	Variant           string `json:"variant"`
	Columns           int    `json:"columns"`
	ShowRefreshButton bool   `json:"showRefreshButton"`
	Version           uint64 `json:"version"`
	Tiles             []Tile `json:"tiles"`
}

// BuildPayload snapshots grid into a GridPayload.
func BuildPayload(grid *Grid) GridPayload {
	cfg := grid.Config()
	return GridPayload{
		InstanceID:        grid.InstanceID(),
		RecordID:          cfg.RecordID,
		Header:            cfg.Header,
		HelpText:          cfg.HelpText,
		Variant:           NormalizeVariant(cfg.Variant),
		Columns:           ClampDimension(cfg.Columns, MinDimension, MaxDimension),
		ShowRefreshButton: cfg.ShowRefreshButton,
		Version:           grid.Version(),
		Tiles:             grid.Tiles(),
	}
}

// Controller resolves grids hosted by a page for the transports.
type Controller struct {
	page *Page
}

// NewController wires the page into a controller.
func NewController(page *Page) *Controller {
	return &Controller{page: page}
}

// Page exposes the page the controller serves.
func (c *Controller) Page() *Page {
	return c.page
}

// Grid resolves a grid by instance id.
func (c *Controller) Grid(instanceID int) (*Grid, error) {
	if c == nil || c.page == nil {
		return nil, fmt.Errorf("rollup: controller has no page")
	}
	grid, ok := c.page.Grid(instanceID)
	if !ok {
		return nil, fmt.Errorf("%w: instance %d", ErrInstanceNotFound, instanceID)
	}
	return grid, nil
}

// Render returns the payload of one grid.
func (c *Controller) Render(_ context.Context, instanceID int) (GridPayload, error) {
	grid, err := c.Grid(instanceID)
	if err != nil {
		return GridPayload{}, err
	}
	return BuildPayload(grid), nil
}

// RenderAll returns the payloads of every grid on the page in creation order.
func (c *Controller) RenderAll(_ context.Context) []GridPayload {
	if c == nil || c.page == nil {
		return nil
	}
	grids := c.page.Grids()
	out := make([]GridPayload, 0, len(grids))
	for _, grid := range grids {
		out = append(out, BuildPayload(grid))
	}
	return out
}
