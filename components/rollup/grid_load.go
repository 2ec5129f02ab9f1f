package rollup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type pendingLoad struct {
	seq    uint64
	timer  Timer
	cancel context.CancelFunc
}

type loadResult struct {
	resp     *AggregateResponse
	err      error
	timedOut bool
}

// apply folds the outcome of a load into the tile state.
func (r loadResult) apply(s TileState) TileState {
	switch {
	case r.timedOut:
		return s.failed(ErrorTimeout, MessageTimeout)
	case r.err != nil:
		return s.failed(ErrorTransport, ErrorMessage(r.err))
	case r.resp == nil:
		return s.failed(ErrorBusiness, MessageNoData)
	case strings.TrimSpace(r.resp.ErrorMessage) != "":
		return s.adopt(r.resp).failed(ErrorBusiness, r.resp.ErrorMessage)
	}
	s = s.adopt(r.resp)
	s.Value = r.resp.Value
	s.Status = StatusSuccess
	s.ErrorKind = ErrorNone
	s.Error = ""
	return s
}

// LoadTile (re)loads one tile. Configuration problems settle the tile
// immediately; otherwise a request is issued in the background and bounded by
// the grid timeout. Any earlier load of the same tile is superseded and its
// outcome discarded. ctx is only used for values: cancelling it does not abort
// the load.
func (g *Grid) LoadTile(ctx context.Context, index int) error {
	defer g.recoverRender(ctx)
	event, start, err := g.beginLoad(ctx, index)
	if err != nil {
		return err
	}
	g.publish(ctx, event)
	g.opts.Telemetry.Record(ctx, "rollup.tile.load", map[string]any{
		"instance_id": g.id,
		"tile":        index,
		"status":      event.Tiles[index-1].State.Status.String(),
	})
	if start != nil {
		start()
	}
	return nil
}

// RefreshAll reloads every materialized tile.
func (g *Grid) RefreshAll(ctx context.Context) error {
	defer g.recoverRender(ctx)
	tiles := g.Tiles()
	g.opts.Telemetry.Record(ctx, "rollup.grid.refresh", map[string]any{
		"instance_id": g.id,
		"tiles":       len(tiles),
	})
	g.logger.Debug("refreshing grid", slog.Int("tiles", len(tiles)))
	var errs error
	for _, tile := range tiles {
		if err := g.LoadTile(ctx, tile.Index()); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (g *Grid) beginLoad(ctx context.Context, index int) (GridEvent, func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return GridEvent{}, nil, ErrGridClosed
	}
	pos := g.positionLocked(index)
	if pos < 0 {
		return GridEvent{}, nil, fmt.Errorf("%w: %d", ErrTileNotFound, index)
	}
	g.supersedeLocked(index)
	tile := g.tiles[pos]

	if msg := g.cfg.ConfigurationError(); msg != "" {
		g.replaceLocked(pos, tile.State.loading().failed(ErrorConfiguration, msg))
		return g.eventLocked(ReasonLoad, index), nil, nil
	}
	if msg := tile.Config.ConfigurationError(); msg != "" {
		g.replaceLocked(pos, tile.State.loading().failed(ErrorConfiguration, msg))
		return g.eventLocked(ReasonLoad, index), nil, nil
	}

	req := g.requestLocked(tile)
	seq := g.seq[index]
	base := context.WithoutCancel(ctx)
	loadCtx, cancel := context.WithCancel(base)
	timer := g.opts.Clock.AfterFunc(g.opts.Timeout, func() {
		g.settle(base, index, seq, loadResult{timedOut: true})
	})
	g.trackLocked(index, &pendingLoad{seq: seq, timer: timer, cancel: cancel})
	g.replaceLocked(pos, tile.State.loading())

	start := func() {
		go g.run(loadCtx, base, index, seq, req)
	}
	return g.eventLocked(ReasonLoad, index), start, nil
}

func (g *Grid) run(ctx, base context.Context, index int, seq uint64, req AggregateRequest) {
	defer g.recoverRender(base)
	resp, err := g.opts.Service.Aggregate(ctx, req)
	g.settle(base, index, seq, loadResult{resp: resp, err: err})
}

// settle applies a load outcome unless a newer load of the tile superseded it.
func (g *Grid) settle(ctx context.Context, index int, seq uint64, res loadResult) {
	defer g.recoverRender(ctx)
	event, ok := func() (GridEvent, bool) {
		g.mu.Lock()
		defer g.mu.Unlock()
		load, ok := g.pending[index]
		if !ok || load.seq != seq {
			return GridEvent{}, false
		}
		g.untrackLocked(index)
		pos := g.positionLocked(index)
		if pos < 0 {
			return GridEvent{}, false
		}
		g.replaceLocked(pos, res.apply(g.tiles[pos].State))
		return g.eventLocked(ReasonSettle, index), true
	}()
	if !ok {
		g.logger.Debug("discarding stale load outcome", slog.Int("tile", index), slog.Uint64("seq", seq))
		return
	}
	state := event.Tiles[index-1].State
	if state.Status == StatusError {
		g.logger.Warn("tile load failed",
			slog.Int("tile", index),
			slog.String("kind", state.ErrorKind.String()),
			slog.String("error", state.Error),
		)
	}
	g.publish(ctx, event)
	g.opts.Telemetry.Record(ctx, "rollup.tile.settle", map[string]any{
		"instance_id": g.id,
		"tile":        index,
		"status":      state.Status.String(),
		"error_kind":  state.ErrorKind.String(),
	})
}

func (g *Grid) requestLocked(tile Tile) AggregateRequest {
	cfg := g.cfg
	req := AggregateRequest{
		ParentID:                 cfg.RecordID,
		ChildObjectAPIName:       strings.TrimSpace(cfg.ChildObject),
		RelationshipFieldAPIName: strings.TrimSpace(cfg.RelationshipField),
		AggregateFieldAPIName:    strings.TrimSpace(tile.Config.AggregateField),
		AggregateType:            string(tile.State.AggregateType),
		FilterCondition:          tile.Config.FilterCondition,
	}
	if cfg.GrandchildMode() {
		object := strings.TrimSpace(cfg.GrandchildObject)
		field := strings.TrimSpace(cfg.GrandchildRelationshipField)
		req.GrandchildObjectAPIName = &object
		req.GrandchildRelationshipFieldAPIName = &field
	}
	return req
}

// supersedeLocked cancels the pending load of index, if any, and advances its
// sequence so a late outcome is recognised as stale.
func (g *Grid) supersedeLocked(index int) {
	g.untrackLocked(index)
	g.seq[index]++
}

func (g *Grid) trackLocked(index int, load *pendingLoad) {
	if len(g.pending) == 0 {
		g.idle = make(chan struct{})
	}
	g.pending[index] = load
}

func (g *Grid) untrackLocked(index int) {
	load, ok := g.pending[index]
	if !ok {
		return
	}
	load.timer.Stop()
	load.cancel()
	delete(g.pending, index)
	if len(g.pending) == 0 && g.idle != nil {
		close(g.idle)
		g.idle = nil
	}
}

// recoverRender is deferred by every entry point. A panic while updating tiles
// puts the whole grid into a uniform render error instead of crashing the host.
func (g *Grid) recoverRender(ctx context.Context) {
	recovered := recover()
	if recovered == nil {
		return
	}
	g.logger.Error("recovered panic while rendering", slog.Any("panic", recovered))
	event := g.failAll(recovered)
	g.publish(ctx, event)
	g.opts.Telemetry.Record(ctx, "rollup.grid.render_error", map[string]any{
		"instance_id": g.id,
		"error":       fmt.Sprint(recovered),
	})
}

func (g *Grid) failAll(recovered any) GridEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	for index := range g.pending {
		g.supersedeLocked(index)
	}
	msg := g.outstandingConfigErrorLocked()
	if msg == "" {
		msg = renderErrorMessage(recovered)
	}
	ictx := g.instanceContext(g.cfg)
	next := make([]Tile, len(g.tiles))
	for i, tile := range g.tiles {
		state := tile.State.loading().failed(ErrorRender, msg)
		state.IsAggregationMenuOpen = false
		next[i] = safeRecompute(Tile{Config: tile.Config, State: state}, tile.View, ictx)
	}
	g.commitLocked(next)
	return g.eventLocked(ReasonRenderError, 0)
}

func (g *Grid) outstandingConfigErrorLocked() string {
	if msg := g.cfg.ConfigurationError(); msg != "" {
		return msg
	}
	for _, tile := range g.tiles {
		if tile.State.ErrorKind == ErrorConfiguration && tile.State.Error != "" {
			return tile.State.Error
		}
	}
	return ""
}

// safeRecompute falls back to the previous view, patched with the error flags,
// when the derivation itself panics.
func safeRecompute(tile Tile, previous TileView, ictx InstanceContext) (out Tile) {
	defer func() {
		if recover() != nil {
			previous.DisplayValue = emptyDisplayValue
			previous.IsLoading = false
			previous.HasError = true
			previous.GearMenuClass = gearMenuClassBase
			out = Tile{Config: tile.Config, State: tile.State, View: previous}
		}
	}()
	return Recompute(tile, ictx)
}
