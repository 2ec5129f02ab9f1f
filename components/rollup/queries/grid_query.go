package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rollup/components/rollup"
)

// GridQueryInput identifies a grid on the page.
type GridQueryInput struct {
	InstanceID int `json:"instance_id"`
}

type gridRenderer interface {
	Render(ctx context.Context, instanceID int) (rollup.GridPayload, error)
}

// GridQuery returns the render payload of one grid.
type GridQuery struct {
	renderer gridRenderer
}

// NewGridQuery builds the query.
func NewGridQuery(renderer gridRenderer) *GridQuery {
	return &GridQuery{renderer: renderer}
}

var _ gocommand.Querier[GridQueryInput, rollup.GridPayload] = (*GridQuery)(nil)

// Query resolves the grid payload.
func (q *GridQuery) Query(ctx context.Context, input GridQueryInput) (rollup.GridPayload, error) {
	return q.renderer.Render(ctx, input.InstanceID)
}
