package rollup

import (
	"context"
	"testing"
)

func TestNewPageProxiesCore(t *testing.T) {
	page := NewPage()
	defer page.Close()
	service := func(context.Context, AggregateRequest) (*AggregateResponse, error) { return nil, nil }
	grid, err := page.NewGrid(Options{
		Config:  GridConfig{Rows: 2, Columns: 3},
		Service: serviceFunc(service),
	})
	if err != nil {
		t.Fatalf("NewGrid returned error: %v", err)
	}
	if grid.InstanceID() != 1 {
		t.Fatalf("expected first instance id 1, got %d", grid.InstanceID())
	}
	if len(grid.Tiles()) != 6 {
		t.Fatalf("expected 6 tiles, got %d", len(grid.Tiles()))
	}
}

func TestNewGridRequiresService(t *testing.T) {
	if _, err := NewGrid(Options{}); err == nil {
		t.Fatalf("expected error without aggregation service")
	}
}

type serviceFunc func(context.Context, AggregateRequest) (*AggregateResponse, error)

func (f serviceFunc) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResponse, error) {
	return f(ctx, req)
}
