package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-rollup/components/rollup"
	"github.com/goliatone/go-rollup/components/rollup/httpapi"
	"github.com/goliatone/go-rollup/components/rollup/queries"
)

// Routes is the subset of a go-router router the rollup endpoints need. Any
// router.Router[T], or a group of one, satisfies it.
type Routes interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// Config wires go-router with the rollup handlers and broadcast hook.
type Config struct {
	Router    Routes
	API       *httpapi.Handlers
	Broadcast *rollup.BroadcastHook
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for rollup endpoints.
type RouteConfig struct {
	Page              string
	Grid              string
	Refresh           string
	LoadTile          string
	ToggleMenu        string
	Click             string
	SelectAggregation string
	Relationship      string
	WebSocket         string
}

// requestContext is the part of router.Context the handlers use.
type requestContext interface {
	Context() context.Context
	Body() []byte
	Param(name string, defaultValue ...string) string
	JSON(code int, v any) error
}

// Register mounts the rollup JSON endpoints and the WebSocket stream.
func Register(cfg Config) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	api := cfg.API

	cfg.Router.Get(routes.Page, router.WrapHandler(func(ctx router.Context) error {
		return handlePage(ctx, api)
	}))
	cfg.Router.Get(routes.Grid, router.WrapHandler(func(ctx router.Context) error {
		return handleGrid(ctx, api)
	}))
	cfg.Router.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		return execute(ctx, api.Refresh, http.StatusAccepted, "queued")
	}))
	cfg.Router.Post(routes.LoadTile, router.WrapHandler(func(ctx router.Context) error {
		return execute(ctx, api.LoadTile, http.StatusAccepted, "queued")
	}))
	cfg.Router.Post(routes.ToggleMenu, router.WrapHandler(func(ctx router.Context) error {
		return execute(ctx, api.ToggleMenu, http.StatusOK, "toggled")
	}))
	cfg.Router.Post(routes.Click, router.WrapHandler(func(ctx router.Context) error {
		return execute(ctx, api.Click, http.StatusOK, "handled")
	}))
	cfg.Router.Post(routes.SelectAggregation, router.WrapHandler(func(ctx router.Context) error {
		return execute(ctx, api.SelectAggregation, http.StatusAccepted, "queued")
	}))
	cfg.Router.Post(routes.Relationship, router.WrapHandler(func(ctx router.Context) error {
		return execute(ctx, api.SaveRelationship, http.StatusAccepted, "saved")
	}))

	if cfg.Broadcast != nil {
		registerWebSocket(cfg.Router, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func handlePage(ctx requestContext, api *httpapi.Handlers) error {
	if api.Page == nil {
		return respondError(ctx, http.StatusNotImplemented, errors.New("page query not configured"))
	}
	payloads, err := api.Page.Query(ctx.Context(), queries.PageQueryInput{})
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusOK, payloads)
}

func handleGrid(ctx requestContext, api *httpapi.Handlers) error {
	if api.Grid == nil {
		return respondError(ctx, http.StatusNotImplemented, errors.New("grid query not configured"))
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, errors.New("instance id must be numeric"))
	}
	payload, err := api.Grid.Query(ctx.Context(), queries.GridQueryInput{InstanceID: id})
	if err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(http.StatusOK, payload)
}

func execute[T any](ctx requestContext, cmd gocommand.Commander[T], status int, label string) error {
	if cmd == nil {
		return respondError(ctx, http.StatusNotImplemented, errors.New("command not configured"))
	}
	var payload T
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return respondError(ctx, http.StatusBadRequest, err)
	}
	if err := cmd.Execute(ctx.Context(), payload); err != nil {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(status, map[string]string{"status": label})
}

func registerWebSocket(r Routes, hook *rollup.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		instanceID, err := rollup.ParseInstance(queryValue(ws, rollup.InstanceParam))
		if err != nil {
			_ = ws.WriteJSON(map[string]string{"error": err.Error()})
			return ws.Close()
		}
		if err := hook.Stream(ws.Context(), instanceID, func(event rollup.GridEvent) error {
			return ws.WriteJSON(event)
		}); err != nil {
			return err
		}
		return ws.Close()
	})
}

// queryValue reads a query parameter when the router context exposes them.
func queryValue(ctx any, name string) string {
	if q, ok := ctx.(interface {
		Query(name string, defaultValue ...string) string
	}); ok {
		return q.Query(name)
	}
	return ""
}

func respondError(ctx requestContext, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Page == "" {
		routes.Page = "/rollups"
	}
	if routes.Grid == "" {
		routes.Grid = "/rollups/:id"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/rollups/refresh"
	}
	if routes.LoadTile == "" {
		routes.LoadTile = "/rollups/tiles/load"
	}
	if routes.ToggleMenu == "" {
		routes.ToggleMenu = "/rollups/tiles/menu"
	}
	if routes.Click == "" {
		routes.Click = "/rollups/click"
	}
	if routes.SelectAggregation == "" {
		routes.SelectAggregation = "/rollups/tiles/aggregation"
	}
	if routes.Relationship == "" {
		routes.Relationship = "/rollups/relationship"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/rollups/ws"
	}
	return routes
}
