package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-rollup/components/rollup"
	"github.com/goliatone/go-rollup/pkg/aggregation"
)

type cli struct {
	Verbose bool `short:"v" help:"Enable debug logging on stderr."`

	Render   renderCmd   `cmd:"" help:"Load every tile of a grid configuration and print the results."`
	Validate validateCmd `cmd:"" help:"Check a grid configuration for schema and completeness problems."`
	Init     initCmd     `cmd:"" help:"Write a starter grid configuration."`
	Serve    serveCmd    `cmd:"" help:"Serve a grid over HTTP with SSE and WebSocket snapshot streams."`
}

// SourceFlags locate the configuration and the aggregation service.
type SourceFlags struct {
	Config   string        `short:"c" type:"path" help:"Grid configuration YAML file."`
	Set      []string      `help:"Override a configuration value, e.g. --set rows=2 --set child-object=Opportunity."`
	Endpoint string        `env:"ROLLUP_ENDPOINT" help:"Base URL of the aggregation service."`
	APIKey   string        `name:"api-key" env:"ROLLUP_API_KEY" help:"Bearer token for the aggregation service."`
	Demo     bool          `help:"Use built-in demo data instead of a remote aggregation service."`
	Timeout  time.Duration `default:"15s" help:"Per-tile load timeout."`
}

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	ctx := kong.Parse(&app,
		kong.Name("rollupctl"),
		kong.Description("Inspect, validate and serve rollup tile grids."),
		kong.UsageOnError(),
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)
	ctx.Bind(newLogger(os.Stderr, app.Verbose))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func newLogger(w *os.File, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load layers the configuration file, ROLLUP_* env vars and --set overrides.
func (s SourceFlags) load() (*rollup.ConfigDocument, error) {
	fs := pflag.NewFlagSet("rollupctl", pflag.ContinueOnError)
	rollup.ConfigFlags(fs)
	if err := fs.Parse(overrideArgs(s.Set)); err != nil {
		return nil, fmt.Errorf("rollupctl: parse overrides: %w", err)
	}
	return rollup.LoadConfig(s.Config, fs, nil)
}

var errEndpointRequired = errors.New("rollupctl: --endpoint (ROLLUP_ENDPOINT) is required unless --demo is set")

// service picks the aggregation backend.
func (s SourceFlags) service() (rollup.AggregationService, error) {
	if s.Demo {
		return aggregation.NewMockClient(demoData()), nil
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return nil, errEndpointRequired
	}
	return aggregation.NewHTTPClient(aggregation.HTTPConfig{BaseURL: s.Endpoint, APIKey: s.APIKey})
}

func overrideArgs(values []string) []string {
	args := make([]string, 0, len(values))
	for _, value := range values {
		key, val, _ := strings.Cut(value, "=")
		key = strings.ReplaceAll(strings.TrimSpace(key), "_", "-")
		args = append(args, "--"+key+"="+val)
	}
	return args
}

func demoData() aggregation.MockData {
	three, twelve := 3, 12
	return aggregation.MockData{
		Responses: map[string]rollup.AggregateResponse{
			"Amount":          {Value: 1234.5, RecordCount: &three, IsCurrency: true, FieldLabel: "Amount"},
			"Amount:COUNT":    {Value: 3, RecordCount: &three, FieldLabel: "Amount"},
			"Probability":     {Value: 62.5, RecordCount: &three, IsPercent: true, FieldLabel: "Probability (%)"},
			"CloseDate":       {Value: "2026-03-31", RecordCount: &three, IsDate: true, FieldLabel: "Close Date"},
			"Name":            {Value: "Renewal, Upsell, Expansion", RecordCount: &three, FieldLabel: "Opportunity Name"},
			"Quantity":        {Value: 48, RecordCount: &twelve, FieldLabel: "Quantity"},
			"StageName:COUNT": {Value: 3, RecordCount: &three, FieldLabel: "Stage"},
			"Discount__c:SUM": {ErrorMessage: "Field Discount__c is not accessible.", RecordCount: &three},
		},
	}
}
