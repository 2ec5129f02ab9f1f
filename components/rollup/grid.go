package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Options configures a Grid. Every collaborator is an interface so hosts can
// swap implementations; nil collaborators get safe defaults.
type Options struct {
	Config     GridConfig
	Service    AggregationService
	Bus        SignalBus
	InstanceID int
	Hook       ChangeHook
	Formatter  NumberFormatter
	Translator TranslationService
	Telemetry  Telemetry
	Logger     *slog.Logger
	Clock      Clock
	Timeout    time.Duration
}

// ClickTarget identifies where a click landed relative to a grid.
type ClickTarget int

const (
	// ClickRoot is a click on the grid's root surface outside any menu.
	ClickRoot ClickTarget = iota
	// ClickOutside is a click anywhere outside the grid.
	ClickOutside
	// ClickMenu is a click inside an open dropdown; menus stay as they are.
	ClickMenu
)

// Grid is one independently configured instance of rollup tiles. It owns its
// tile snapshot exclusively; every update swaps in a new slice.
type Grid struct {
	opts   Options
	id     int
	logger *slog.Logger

	mu      sync.Mutex
	cfg     GridConfig
	tiles   []Tile
	version uint64
	seq     map[int]uint64
	pending map[int]*pendingLoad
	idle    chan struct{}
	closed  bool

	stopListen func()
	listenDone chan struct{}
}

// NewGrid materializes the tiles for opts.Config and, when a bus is provided,
// starts listening for page signals. Tiles start Idle; call RefreshAll to load.
func NewGrid(opts Options) (*Grid, error) {
	if opts.Service == nil {
		return nil, ErrMissingService
	}
	if opts.Hook == nil {
		opts.Hook = noopChangeHook{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoadTimeout
	}
	if opts.Formatter == nil {
		opts.Formatter = NewLocaleFormatter(opts.Config.Locale)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)

	g := &Grid{
		opts:    opts,
		id:      opts.InstanceID,
		logger:  opts.Logger.With(slog.Int("instance", opts.InstanceID)),
		cfg:     opts.Config,
		seq:     map[int]uint64{},
		pending: map[int]*pendingLoad{},
		version: 1,
	}
	g.tiles = g.materialize(opts.Config)
	if opts.Bus != nil {
		g.listen(opts.Bus)
	}
	return g, nil
}

// InstanceID returns the page-unique id of the grid.
func (g *Grid) InstanceID() int {
	return g.id
}

// Config returns the configuration currently in effect.
func (g *Grid) Config() GridConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// Tiles returns the current snapshot. The slice is never modified after it is
// published, so callers may hold on to it while rendering.
func (g *Grid) Tiles() []Tile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tiles
}

// Tile returns the current tile for a slot index.
func (g *Grid) Tile(index int) (Tile, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pos := g.positionLocked(index)
	if pos < 0 {
		return Tile{}, false
	}
	return g.tiles[pos], true
}

// Version increases every time a new snapshot is published.
func (g *Grid) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// Snapshot returns the current tiles as an init event, the first message a
// new stream subscriber sees for this grid.
func (g *Grid) Snapshot() GridEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eventLocked(ReasonInit, 0)
}

// TriggerRefresh is the manual refresh action: it broadcasts a RefreshSignal
// for the grid's record so every sibling bound to the same record reloads too.
// Without a bus the grid refreshes itself.
func (g *Grid) TriggerRefresh(ctx context.Context) error {
	if g.opts.Bus == nil {
		return g.RefreshAll(ctx)
	}
	recordID := g.Config().RecordID
	if err := g.opts.Bus.Publish(ctx, RefreshSignal{SourceRecordID: recordID}); err != nil {
		return fmt.Errorf("rollup: publish refresh: %w", err)
	}
	return nil
}

// HandleSignal applies a page signal to this grid. Refreshes for another
// record and menu closes originating from this grid are ignored.
func (g *Grid) HandleSignal(ctx context.Context, signal Signal) {
	defer g.recoverRender(ctx)
	switch s := signal.(type) {
	case RefreshSignal:
		if s.SourceRecordID != "" && s.SourceRecordID != g.Config().RecordID {
			g.logger.Debug("ignoring refresh for other record", slog.String("record", s.SourceRecordID))
			return
		}
		if err := g.RefreshAll(ctx); err != nil {
			g.logger.Warn("refresh from signal failed", slog.Any("error", err))
		}
	case CloseMenusSignal:
		if s.OriginInstanceID == g.id {
			return
		}
		g.CloseAllMenus(ctx)
	}
}

// ToggleMenu opens or closes a tile's aggregation menu. Opening first tells
// the other grids on the page to close theirs and closes sibling menus here.
func (g *Grid) ToggleMenu(ctx context.Context, index int) error {
	defer g.recoverRender(ctx)
	tile, ok := g.Tile(index)
	if !ok {
		return fmt.Errorf("%w: %d", ErrTileNotFound, index)
	}
	opening := !tile.State.IsAggregationMenuOpen
	if opening && g.opts.Bus != nil {
		if err := g.opts.Bus.Publish(ctx, CloseMenusSignal{OriginInstanceID: g.id}); err != nil {
			g.logger.Warn("publish close menus failed", slog.Any("error", err))
		}
	}
	g.setMenus(ctx, index, func(t Tile) bool {
		if t.Index() == index {
			return opening
		}
		if opening {
			return false
		}
		return t.State.IsAggregationMenuOpen
	})
	return nil
}

// CloseAllMenus closes every open menu of this grid without broadcasting.
func (g *Grid) CloseAllMenus(ctx context.Context) {
	defer g.recoverRender(ctx)
	g.setMenus(ctx, 0, func(Tile) bool { return false })
}

// HandleClick closes the grid's menus for root and outside clicks.
func (g *Grid) HandleClick(ctx context.Context, target ClickTarget) {
	switch target {
	case ClickRoot, ClickOutside:
		g.CloseAllMenus(ctx)
	case ClickMenu:
	}
}

// SelectAggregation changes a tile's aggregation kind, closes its menu and
// reloads it. Unknown kinds fall back to SUM.
func (g *Grid) SelectAggregation(ctx context.Context, index int, raw string) error {
	defer g.recoverRender(ctx)
	kind := ValidateAggregation(raw)
	event, err := func() (GridEvent, error) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.closed {
			return GridEvent{}, ErrGridClosed
		}
		pos := g.positionLocked(index)
		if pos < 0 {
			return GridEvent{}, fmt.Errorf("%w: %d", ErrTileNotFound, index)
		}
		state := g.tiles[pos].State
		state.AggregateType = kind
		state.IsAggregationMenuOpen = false
		g.replaceLocked(pos, state)
		return g.eventLocked(ReasonAggregation, index), nil
	}()
	if err != nil {
		return err
	}
	g.publish(ctx, event)
	g.opts.Telemetry.Record(ctx, "rollup.tile.aggregation", map[string]any{
		"instance_id": g.id,
		"tile":        index,
		"aggregation": string(kind),
	})
	return g.LoadTile(ctx, index)
}

// ConfigSaved applies relationship identifiers saved by the configuration
// screen, then reloads every tile.
func (g *Grid) ConfigSaved(ctx context.Context, rel RelationshipConfig) error {
	defer g.recoverRender(ctx)
	event, err := func() (GridEvent, error) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.closed {
			return GridEvent{}, ErrGridClosed
		}
		g.cfg.RelationshipConfig = rel
		ictx := g.instanceContext(g.cfg)
		next := make([]Tile, len(g.tiles))
		for i, tile := range g.tiles {
			next[i] = Recompute(tile, ictx)
		}
		g.commitLocked(next)
		return g.eventLocked(ReasonConfig, 0), nil
	}()
	if err != nil {
		return err
	}
	g.publish(ctx, event)
	return g.RefreshAll(ctx)
}

// Reconfigure replaces the whole configuration, rematerializes the tiles and
// reloads them. Pending loads of the previous tiles are cancelled.
func (g *Grid) Reconfigure(ctx context.Context, cfg GridConfig) error {
	defer g.recoverRender(ctx)
	event, err := func() (GridEvent, error) {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.closed {
			return GridEvent{}, ErrGridClosed
		}
		for index := range g.pending {
			g.supersedeLocked(index)
		}
		g.cfg = cfg
		g.commitLocked(g.materialize(cfg))
		return g.eventLocked(ReasonConfig, 0), nil
	}()
	if err != nil {
		return err
	}
	g.publish(ctx, event)
	return g.RefreshAll(ctx)
}

// Wait blocks until no tile load is pending or ctx is done.
func (g *Grid) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		idle := g.idle
		g.mu.Unlock()
		if idle == nil {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels pending loads and detaches the grid from the page bus.
func (g *Grid) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	for index := range g.pending {
		g.untrackLocked(index)
	}
	stop, done := g.stopListen, g.listenDone
	g.mu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
	return nil
}

func (g *Grid) listen(bus SignalBus) {
	signals, cancel := bus.Subscribe()
	g.stopListen = cancel
	g.listenDone = make(chan struct{})
	go func() {
		defer close(g.listenDone)
		for signal := range signals {
			g.HandleSignal(context.Background(), signal)
		}
	}()
}

func (g *Grid) setMenus(ctx context.Context, index int, open func(Tile) bool) {
	event, changed := func() (GridEvent, bool) {
		g.mu.Lock()
		defer g.mu.Unlock()
		var next []Tile
		ictx := g.instanceContext(g.cfg)
		for i, tile := range g.tiles {
			want := open(tile)
			if want == tile.State.IsAggregationMenuOpen {
				continue
			}
			if next == nil {
				next = append([]Tile(nil), g.tiles...)
			}
			tile.State.IsAggregationMenuOpen = want
			next[i] = Recompute(tile, ictx)
		}
		if next == nil {
			return GridEvent{}, false
		}
		g.commitLocked(next)
		return g.eventLocked(ReasonMenu, index), true
	}()
	if changed {
		g.publish(ctx, event)
	}
}

func (g *Grid) instanceContext(cfg GridConfig) InstanceContext {
	return InstanceContext{
		ObjectAPIName: cfg.SummaryObject(),
		DecimalPlaces: cfg.DecimalPlaces,
		Locale:        cfg.Locale,
		Formatter:     g.opts.Formatter,
		Translator:    g.opts.Translator,
	}
}

func (g *Grid) materialize(cfg GridConfig) []Tile {
	ictx := g.instanceContext(cfg)
	configs := cfg.SlotConfigs()
	tiles := make([]Tile, len(configs))
	for i, tc := range configs {
		tiles[i] = NewTile(tc, ictx)
	}
	return tiles
}

func (g *Grid) positionLocked(index int) int {
	pos := index - 1
	if pos < 0 || pos >= len(g.tiles) || g.tiles[pos].Index() != index {
		return -1
	}
	return pos
}

// replaceLocked recomputes the tile at pos with state and publishes a new slice.
func (g *Grid) replaceLocked(pos int, state TileState) {
	next := append([]Tile(nil), g.tiles...)
	tile := next[pos]
	tile.State = state
	next[pos] = Recompute(tile, g.instanceContext(g.cfg))
	g.commitLocked(next)
}

func (g *Grid) commitLocked(next []Tile) {
	g.tiles = next
	g.version++
}

func (g *Grid) eventLocked(reason string, index int) GridEvent {
	return GridEvent{
		InstanceID: g.id,
		Version:    g.version,
		Reason:     reason,
		TileIndex:  index,
		Tiles:      g.tiles,
	}
}

func (g *Grid) publish(ctx context.Context, event GridEvent) {
	if err := g.opts.Hook.GridUpdated(ctx, event); err != nil {
		g.logger.Warn("change hook failed", slog.String("reason", event.Reason), slog.Any("error", err))
	}
}
