package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rollup/components/rollup"
)

// PageQueryInput requests every grid on the page.
type PageQueryInput struct{}

type pageRenderer interface {
	RenderAll(ctx context.Context) []rollup.GridPayload
}

// PageQuery returns the payloads of all grids in creation order.
type PageQuery struct {
	renderer pageRenderer
}

// NewPageQuery builds the query.
func NewPageQuery(renderer pageRenderer) *PageQuery {
	return &PageQuery{renderer: renderer}
}

var _ gocommand.Querier[PageQueryInput, []rollup.GridPayload] = (*PageQuery)(nil)

// Query resolves every grid payload.
func (q *PageQuery) Query(ctx context.Context, _ PageQueryInput) ([]rollup.GridPayload, error) {
	return q.renderer.RenderAll(ctx), nil
}
