package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshGridInput reloads a grid. With Broadcast set every grid on the page
// bound to the same record reloads as well.
type RefreshGridInput struct {
	InstanceID int  `json:"instance_id"`
	Broadcast  bool `json:"broadcast"`
}

// RefreshGridCommand wraps Grid.RefreshAll and Grid.TriggerRefresh.
type RefreshGridCommand struct {
	grids     GridResolver
	telemetry Telemetry
}

// NewRefreshGridCommand creates the command.
func NewRefreshGridCommand(grids GridResolver, telemetry Telemetry) *RefreshGridCommand {
	return &RefreshGridCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshGridInput] = (*RefreshGridCommand)(nil)

// Execute refreshes the grid.
func (c *RefreshGridCommand) Execute(ctx context.Context, msg RefreshGridInput) error {
	grid, err := resolve(c.grids, msg.InstanceID)
	if err != nil {
		return err
	}
	if msg.Broadcast {
		err = grid.TriggerRefresh(ctx)
	} else {
		err = grid.RefreshAll(ctx)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rollup.command.refresh", map[string]any{
		"instance_id": msg.InstanceID,
		"broadcast":   msg.Broadcast,
	})
	return nil
}

// LoadTileInput reloads a single tile.
type LoadTileInput struct {
	InstanceID int `json:"instance_id"`
	TileIndex  int `json:"tile_index"`
}

// LoadTileCommand wraps Grid.LoadTile.
type LoadTileCommand struct {
	grids     GridResolver
	telemetry Telemetry
}

// NewLoadTileCommand creates the command.
func NewLoadTileCommand(grids GridResolver, telemetry Telemetry) *LoadTileCommand {
	return &LoadTileCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoadTileInput] = (*LoadTileCommand)(nil)

// Execute starts the tile load.
func (c *LoadTileCommand) Execute(ctx context.Context, msg LoadTileInput) error {
	if msg.TileIndex <= 0 {
		return errors.New("load tile command requires tile index")
	}
	grid, err := resolve(c.grids, msg.InstanceID)
	if err != nil {
		return err
	}
	if err := grid.LoadTile(ctx, msg.TileIndex); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rollup.command.load_tile", map[string]any{
		"instance_id": msg.InstanceID,
		"tile":        msg.TileIndex,
	})
	return nil
}
