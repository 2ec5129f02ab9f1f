package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rollup/components/rollup"
)

// ToggleMenuInput opens or closes a tile's aggregation menu.
type ToggleMenuInput struct {
	InstanceID int `json:"instance_id"`
	TileIndex  int `json:"tile_index"`
}

// ToggleMenuCommand wraps Grid.ToggleMenu.
type ToggleMenuCommand struct {
	grids     GridResolver
	telemetry Telemetry
}

// NewToggleMenuCommand creates the command.
func NewToggleMenuCommand(grids GridResolver, telemetry Telemetry) *ToggleMenuCommand {
	return &ToggleMenuCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleMenuInput] = (*ToggleMenuCommand)(nil)

// Execute toggles the menu.
func (c *ToggleMenuCommand) Execute(ctx context.Context, msg ToggleMenuInput) error {
	grid, err := resolve(c.grids, msg.InstanceID)
	if err != nil {
		return err
	}
	if err := grid.ToggleMenu(ctx, msg.TileIndex); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rollup.command.toggle_menu", map[string]any{
		"instance_id": msg.InstanceID,
		"tile":        msg.TileIndex,
	})
	return nil
}

// CloseMenusInput reports a click relative to a grid: "root", "outside" or "menu".
type CloseMenusInput struct {
	InstanceID int    `json:"instance_id"`
	Target     string `json:"target"`
}

// CloseMenusCommand wraps Grid.HandleClick.
type CloseMenusCommand struct {
	grids     GridResolver
	telemetry Telemetry
}

// NewCloseMenusCommand creates the command.
func NewCloseMenusCommand(grids GridResolver, telemetry Telemetry) *CloseMenusCommand {
	return &CloseMenusCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseMenusInput] = (*CloseMenusCommand)(nil)

// Execute routes the click to the grid.
func (c *CloseMenusCommand) Execute(ctx context.Context, msg CloseMenusInput) error {
	target, err := ParseClickTarget(msg.Target)
	if err != nil {
		return err
	}
	grid, err := resolve(c.grids, msg.InstanceID)
	if err != nil {
		return err
	}
	grid.HandleClick(ctx, target)
	c.telemetry.Record(ctx, "rollup.command.click", map[string]any{
		"instance_id": msg.InstanceID,
		"target":      msg.Target,
	})
	return nil
}

// ParseClickTarget maps a transport click target name to rollup.ClickTarget.
// Empty means the grid root.
func ParseClickTarget(raw string) (rollup.ClickTarget, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "root":
		return rollup.ClickRoot, nil
	case "outside":
		return rollup.ClickOutside, nil
	case "menu":
		return rollup.ClickMenu, nil
	default:
		return rollup.ClickRoot, fmt.Errorf("commands: unknown click target %q", raw)
	}
}

// SelectAggregationInput changes a tile's aggregation kind.
type SelectAggregationInput struct {
	InstanceID  int    `json:"instance_id"`
	TileIndex   int    `json:"tile_index"`
	Aggregation string `json:"aggregation"`
}

// SelectAggregationCommand wraps Grid.SelectAggregation.
type SelectAggregationCommand struct {
	grids     GridResolver
	telemetry Telemetry
}

// NewSelectAggregationCommand creates the command.
func NewSelectAggregationCommand(grids GridResolver, telemetry Telemetry) *SelectAggregationCommand {
	return &SelectAggregationCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectAggregationInput] = (*SelectAggregationCommand)(nil)

// Execute applies the selection and reloads the tile.
func (c *SelectAggregationCommand) Execute(ctx context.Context, msg SelectAggregationInput) error {
	if strings.TrimSpace(msg.Aggregation) == "" {
		return errors.New("select aggregation command requires aggregation")
	}
	grid, err := resolve(c.grids, msg.InstanceID)
	if err != nil {
		return err
	}
	if err := grid.SelectAggregation(ctx, msg.TileIndex, msg.Aggregation); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rollup.command.select_aggregation", map[string]any{
		"instance_id": msg.InstanceID,
		"tile":        msg.TileIndex,
		"aggregation": string(rollup.ValidateAggregation(msg.Aggregation)),
	})
	return nil
}
