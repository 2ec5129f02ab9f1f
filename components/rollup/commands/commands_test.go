package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-rollup/components/rollup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

type recordingService struct {
	mu       sync.Mutex
	requests []rollup.AggregateRequest
}

func (s *recordingService) Aggregate(_ context.Context, req rollup.AggregateRequest) (*rollup.AggregateResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	count := 2
	return &rollup.AggregateResponse{Value: 10.0, RecordCount: &count}, nil
}

func (s *recordingService) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *recordingService) last() rollup.AggregateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newFixture(t *testing.T) (*rollup.Controller, *rollup.Grid, *recordingService) {
	t.Helper()
	page := rollup.NewPage(nil)
	t.Cleanup(func() { _ = page.Close() })
	service := &recordingService{}
	grid, err := page.NewGrid(rollup.Options{
		Config: rollup.GridConfig{
			RecordID: "001",
			RelationshipConfig: rollup.RelationshipConfig{
				ChildObject:       "Opportunity",
				RelationshipField: "AccountId",
			},
			Rows:    1,
			Columns: 2,
			Tiles: []rollup.TileConfig{
				{Index: 1, AggregateField: "Amount"},
				{Index: 2, AggregateField: "Name", InitialAggregation: "COUNT"},
			},
		},
		Service: service,
	})
	require.NoError(t, err)
	return rollup.NewController(page), grid, service
}

func waitIdle(t *testing.T, grid *rollup.Grid) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, grid.Wait(ctx))
}

func TestRefreshGridCommand(t *testing.T) {
	controller, grid, service := newFixture(t)
	telemetry := &stubTelemetry{}
	cmd := NewRefreshGridCommand(controller, telemetry)

	require.NoError(t, cmd.Execute(context.Background(), RefreshGridInput{InstanceID: grid.InstanceID()}))
	waitIdle(t, grid)

	assert.Equal(t, 2, service.calls())
	assert.Contains(t, telemetry.events, "rollup.command.refresh")
	for _, tile := range grid.Tiles() {
		assert.Equal(t, rollup.StatusSuccess, tile.State.Status)
	}
}

func TestRefreshGridCommandUnknownInstance(t *testing.T) {
	controller, _, _ := newFixture(t)
	cmd := NewRefreshGridCommand(controller, nil)
	err := cmd.Execute(context.Background(), RefreshGridInput{InstanceID: 42})
	require.ErrorIs(t, err, rollup.ErrInstanceNotFound)
}

func TestCommandsRequireResolver(t *testing.T) {
	cmd := NewLoadTileCommand(nil, nil)
	err := cmd.Execute(context.Background(), LoadTileInput{InstanceID: 1, TileIndex: 1})
	require.ErrorIs(t, err, errMissingResolver)
}

func TestLoadTileCommand(t *testing.T) {
	controller, grid, service := newFixture(t)
	cmd := NewLoadTileCommand(controller, nil)

	require.Error(t, cmd.Execute(context.Background(), LoadTileInput{InstanceID: grid.InstanceID()}))
	require.NoError(t, cmd.Execute(context.Background(), LoadTileInput{InstanceID: grid.InstanceID(), TileIndex: 2}))
	waitIdle(t, grid)

	require.Equal(t, 1, service.calls())
	assert.Equal(t, "Name", service.last().AggregateFieldAPIName)
	assert.Equal(t, "COUNT", service.last().AggregateType)

	err := cmd.Execute(context.Background(), LoadTileInput{InstanceID: grid.InstanceID(), TileIndex: 7})
	require.ErrorIs(t, err, rollup.ErrTileNotFound)
}

func TestToggleAndCloseMenuCommands(t *testing.T) {
	controller, grid, _ := newFixture(t)
	toggle := NewToggleMenuCommand(controller, nil)
	closeMenus := NewCloseMenusCommand(controller, nil)

	require.NoError(t, toggle.Execute(context.Background(), ToggleMenuInput{InstanceID: grid.InstanceID(), TileIndex: 1}))
	tile, ok := grid.Tile(1)
	require.True(t, ok)
	assert.True(t, tile.State.IsAggregationMenuOpen)

	require.NoError(t, closeMenus.Execute(context.Background(), CloseMenusInput{InstanceID: grid.InstanceID(), Target: "menu"}))
	tile, _ = grid.Tile(1)
	assert.True(t, tile.State.IsAggregationMenuOpen)

	require.NoError(t, closeMenus.Execute(context.Background(), CloseMenusInput{InstanceID: grid.InstanceID(), Target: "outside"}))
	tile, _ = grid.Tile(1)
	assert.False(t, tile.State.IsAggregationMenuOpen)

	require.Error(t, closeMenus.Execute(context.Background(), CloseMenusInput{InstanceID: grid.InstanceID(), Target: "sideways"}))
}

func TestSelectAggregationCommand(t *testing.T) {
	controller, grid, service := newFixture(t)
	cmd := NewSelectAggregationCommand(controller, nil)

	require.Error(t, cmd.Execute(context.Background(), SelectAggregationInput{InstanceID: grid.InstanceID(), TileIndex: 1}))
	require.NoError(t, cmd.Execute(context.Background(), SelectAggregationInput{
		InstanceID:  grid.InstanceID(),
		TileIndex:   1,
		Aggregation: "avg",
	}))
	waitIdle(t, grid)

	require.Equal(t, 1, service.calls())
	assert.Equal(t, "AVERAGE", service.last().AggregateType)
	tile, _ := grid.Tile(1)
	assert.Equal(t, rollup.AggregationAverage, tile.State.AggregateType)
}

func TestSaveRelationshipCommand(t *testing.T) {
	controller, grid, service := newFixture(t)
	cmd := NewSaveRelationshipCommand(controller, nil)

	require.NoError(t, cmd.Execute(context.Background(), SaveRelationshipInput{
		InstanceID:                  grid.InstanceID(),
		ChildObject:                 "Opportunity",
		RelationshipField:           "AccountId",
		GrandchildObject:            "OpportunityLineItem",
		GrandchildRelationshipField: "OpportunityId",
	}))
	waitIdle(t, grid)

	require.Equal(t, 2, service.calls())
	req := service.last()
	require.NotNil(t, req.GrandchildObjectAPIName)
	assert.Equal(t, "OpportunityLineItem", *req.GrandchildObjectAPIName)
	assert.Equal(t, "OpportunityLineItem", grid.Config().SummaryObject())
}

func TestParseClickTarget(t *testing.T) {
	target, err := ParseClickTarget("")
	require.NoError(t, err)
	assert.Equal(t, rollup.ClickRoot, target)
	target, err = ParseClickTarget(" Outside ")
	require.NoError(t, err)
	assert.Equal(t, rollup.ClickOutside, target)
}
