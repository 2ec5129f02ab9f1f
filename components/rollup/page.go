package rollup

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Page hosts the grids rendered together on one record page. It assigns
// instance ids and owns the bus the grids coordinate through.
type Page struct {
	bus SignalBus

	mu     sync.RWMutex
	nextID int
	grids  map[int]*Grid
	order  []int
}

// NewPage creates a page around bus. A nil bus gets an in-process Broadcaster.
func NewPage(bus SignalBus) *Page {
	if bus == nil {
		bus = NewBroadcaster()
	}
	return &Page{
		bus:   bus,
		grids: make(map[int]*Grid),
	}
}

// Bus returns the page-wide signal bus.
func (p *Page) Bus() SignalBus {
	return p.bus
}

// NewGrid creates a grid attached to the page. InstanceID and Bus in opts are
// overwritten: ids are sequential starting at 1 and never reused.
func (p *Page) NewGrid(opts Options) (*Grid, error) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	opts.InstanceID = id
	opts.Bus = p.bus
	grid, err := NewGrid(opts)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.grids[id] = grid
	p.order = append(p.order, id)
	p.mu.Unlock()
	return grid, nil
}

// Grid looks up a grid by instance id.
func (p *Page) Grid(id int) (*Grid, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	grid, ok := p.grids[id]
	return grid, ok
}

// Grids returns the live grids in creation order.
func (p *Page) Grids() []*Grid {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Grid, 0, len(p.order))
	for _, id := range p.order {
		if grid, ok := p.grids[id]; ok {
			out = append(out, grid)
		}
	}
	return out
}

// Snapshots returns the current snapshot of grid instanceID, or of every grid
// in creation order when instanceID is 0.
func (p *Page) Snapshots(instanceID int) []GridEvent {
	if instanceID != 0 {
		grid, ok := p.Grid(instanceID)
		if !ok {
			return nil
		}
		return []GridEvent{grid.Snapshot()}
	}
	grids := p.Grids()
	out := make([]GridEvent, 0, len(grids))
	for _, grid := range grids {
		out = append(out, grid.Snapshot())
	}
	return out
}

// Remove closes and forgets a grid.
func (p *Page) Remove(id int) error {
	p.mu.Lock()
	grid, ok := p.grids[id]
	if ok {
		delete(p.grids, id)
		for i, existing := range p.order {
			if existing == id {
				p.order = append(p.order[:i:i], p.order[i+1:]...)
				break
			}
		}
	}
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: instance %d", ErrInstanceNotFound, id)
	}
	return grid.Close()
}

// RefreshAll asks every grid on the page to reload, regardless of record.
func (p *Page) RefreshAll(ctx context.Context) error {
	return p.bus.Publish(ctx, RefreshSignal{})
}

// Wait blocks until every grid on the page is idle.
func (p *Page) Wait(ctx context.Context) error {
	for _, grid := range p.Grids() {
		if err := grid.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every grid.
func (p *Page) Close() error {
	p.mu.Lock()
	grids := make([]*Grid, 0, len(p.order))
	for _, id := range p.order {
		grids = append(grids, p.grids[id])
	}
	p.grids = make(map[int]*Grid)
	p.order = nil
	p.mu.Unlock()

	var errs error
	for _, grid := range grids {
		errs = errors.Join(errs, grid.Close())
	}
	return errs
}
