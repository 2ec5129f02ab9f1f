package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-rollup/components/rollup"
	"github.com/goliatone/go-rollup/components/rollup/commands"
	"github.com/goliatone/go-rollup/components/rollup/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Grid              gocommand.Querier[queries.GridQueryInput, rollup.GridPayload]
	Page              gocommand.Querier[queries.PageQueryInput, []rollup.GridPayload]
	Refresh           gocommand.Commander[commands.RefreshGridInput]
	LoadTile          gocommand.Commander[commands.LoadTileInput]
	ToggleMenu        gocommand.Commander[commands.ToggleMenuInput]
	Click             gocommand.Commander[commands.CloseMenusInput]
	SelectAggregation gocommand.Commander[commands.SelectAggregationInput]
	SaveRelationship  gocommand.Commander[commands.SaveRelationshipInput]
	Stream            *rollup.BroadcastHook
}

// NewHandlers wires every command and query against controller.
func NewHandlers(controller *rollup.Controller, stream *rollup.BroadcastHook, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Grid:              queries.NewGridQuery(controller),
		Page:              queries.NewPageQuery(controller),
		Refresh:           commands.NewRefreshGridCommand(controller, telemetry),
		LoadTile:          commands.NewLoadTileCommand(controller, telemetry),
		ToggleMenu:        commands.NewToggleMenuCommand(controller, telemetry),
		Click:             commands.NewCloseMenusCommand(controller, telemetry),
		SelectAggregation: commands.NewSelectAggregationCommand(controller, telemetry),
		SaveRelationship:  commands.NewSaveRelationshipCommand(controller, telemetry),
		Stream:            stream,
	}
}

// Register mounts the handlers on mux under the /rollups prefix.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /rollups", h.HandlePage)
	mux.HandleFunc("GET /rollups/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			http.Error(w, "invalid instance id", http.StatusBadRequest)
			return
		}
		h.HandleGrid(w, r, id)
	})
	mux.HandleFunc("POST /rollups/refresh", h.HandleRefresh)
	mux.HandleFunc("POST /rollups/tiles/load", h.HandleLoadTile)
	mux.HandleFunc("POST /rollups/tiles/menu", h.HandleToggleMenu)
	mux.HandleFunc("POST /rollups/click", h.HandleClick)
	mux.HandleFunc("POST /rollups/tiles/aggregation", h.HandleSelectAggregation)
	mux.HandleFunc("POST /rollups/relationship", h.HandleSaveRelationship)
	if h.Stream != nil {
		mux.HandleFunc("GET /rollups/events", h.Stream.ServeSSE)
		mux.HandleFunc("GET /rollups/ws", h.Stream.ServeWebSocket)
	}
}

func (h *Handlers) HandleGrid(w http.ResponseWriter, r *http.Request, instanceID int) {
	payload, err := h.Grid.Query(r.Context(), queries.GridQueryInput{InstanceID: instanceID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	payloads, err := h.Page.Query(r.Context(), queries.PageQueryInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payloads)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	execute(w, r, h.Refresh, http.StatusAccepted)
}

func (h *Handlers) HandleLoadTile(w http.ResponseWriter, r *http.Request) {
	execute(w, r, h.LoadTile, http.StatusAccepted)
}

func (h *Handlers) HandleToggleMenu(w http.ResponseWriter, r *http.Request) {
	execute(w, r, h.ToggleMenu, http.StatusOK)
}

func (h *Handlers) HandleClick(w http.ResponseWriter, r *http.Request) {
	execute(w, r, h.Click, http.StatusOK)
}

func (h *Handlers) HandleSelectAggregation(w http.ResponseWriter, r *http.Request) {
	execute(w, r, h.SelectAggregation, http.StatusAccepted)
}

func (h *Handlers) HandleSaveRelationship(w http.ResponseWriter, r *http.Request) {
	execute(w, r, h.SaveRelationship, http.StatusAccepted)
}

func execute[T any](w http.ResponseWriter, r *http.Request, cmd gocommand.Commander[T], status int) {
	if cmd == nil {
		http.Error(w, "not configured", http.StatusNotImplemented)
		return
	}
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cmd.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(status)
}

// StatusFor maps command errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, rollup.ErrInstanceNotFound), errors.Is(err, rollup.ErrTileNotFound):
		return http.StatusNotFound
	case errors.Is(err, rollup.ErrGridClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
