package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rollup/components/rollup"
)

// SaveRelationshipInput carries the identifiers saved by the relationship
// configuration screen.
type SaveRelationshipInput struct {
	InstanceID                  int    `json:"instance_id"`
	ChildObject                 string `json:"child_object"`
	RelationshipField           string `json:"relationship_field"`
	GrandchildObject            string `json:"grandchild_object"`
	GrandchildRelationshipField string `json:"grandchild_relationship_field"`
}

// SaveRelationshipCommand wraps Grid.ConfigSaved.
type SaveRelationshipCommand struct {
	grids     GridResolver
	telemetry Telemetry
}

// NewSaveRelationshipCommand creates the command.
func NewSaveRelationshipCommand(grids GridResolver, telemetry Telemetry) *SaveRelationshipCommand {
	return &SaveRelationshipCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveRelationshipInput] = (*SaveRelationshipCommand)(nil)

// Execute applies the relationship and refreshes the grid.
func (c *SaveRelationshipCommand) Execute(ctx context.Context, msg SaveRelationshipInput) error {
	grid, err := resolve(c.grids, msg.InstanceID)
	if err != nil {
		return err
	}
	rel := rollup.RelationshipConfig{
		ChildObject:                 msg.ChildObject,
		RelationshipField:           msg.RelationshipField,
		GrandchildObject:            msg.GrandchildObject,
		GrandchildRelationshipField: msg.GrandchildRelationshipField,
	}
	if err := grid.ConfigSaved(ctx, rel); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "rollup.command.save_relationship", map[string]any{
		"instance_id": msg.InstanceID,
		"grandchild":  rel.GrandchildMode(),
	})
	return nil
}
