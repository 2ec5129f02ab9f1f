package rollup

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LoadStatus is the per-tile load state.
type LoadStatus int

const (
	StatusIdle LoadStatus = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// String implements fmt.Stringer.
func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// MarshalJSON encodes the status by name.
func (s LoadStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name; unknown names decode as idle.
func (s *LoadStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "loading":
		*s = StatusLoading
	case "success":
		*s = StatusSuccess
	case "error":
		*s = StatusError
	default:
		*s = StatusIdle
	}
	return nil
}

const (
	gearMenuClassBase = "slds-dropdown-trigger slds-dropdown-trigger_click"
	gearMenuClassOpen = "slds-is-open"
	emptyDisplayValue = "-"
	listSeparator     = ", "
)

// TileState is the mutable runtime state of a tile.
type TileState struct {
	AggregateType         AggregationKind `json:"aggregateType"`
	Category              FieldCategory   `json:"category"`
	Status                LoadStatus      `json:"status"`
	Error                 string          `json:"error,omitempty"`
	ErrorKind             ErrorKind       `json:"errorKind"`
	Value                 any             `json:"value"`
	RecordCount           *int            `json:"recordCount"`
	IsCurrency            bool            `json:"isCurrency"`
	IsPercent             bool            `json:"isPercent"`
	IsDate                bool            `json:"isDate"`
	FieldLabel            string          `json:"fieldLabel,omitempty"`
	IsAggregationMenuOpen bool            `json:"isAggregationMenuOpen"`
}

// IsLoading reports whether a load is in flight.
func (s TileState) IsLoading() bool {
	return s.Status == StatusLoading
}

// TileView holds the fields derived by Recompute. It is never mutated directly.
type TileView struct {
	FieldCategory          FieldCategory     `json:"fieldCategory"`
	IsNumericAggregate     bool              `json:"isNumericAggregate"`
	AllowedAggregations    []AggregationKind `json:"allowedAggregations"`
	DisplayValue           string            `json:"displayValue"`
	HasRecordCount         bool              `json:"hasRecordCount"`
	SummaryRecordLabel     string            `json:"summaryRecordLabel,omitempty"`
	FieldLabelForSummary   string            `json:"fieldLabelForSummary"`
	AggregationPhrase      string            `json:"aggregationPhrase"`
	SummaryLabel           string            `json:"summaryLabel"`
	AggregationMenuOptions []MenuOption      `json:"aggregationMenuOptions"`
	GearMenuClass          string            `json:"gearMenuClass"`
	IsLoading              bool              `json:"isLoading"`
	HasError               bool              `json:"hasError"`
}

// Tile is one grid cell: configuration, runtime state and the derived view.
type Tile struct {
	Config TileConfig `json:"config"`
	State  TileState  `json:"state"`
	View   TileView   `json:"view"`
}

// Index returns the tile's slot position.
func (t Tile) Index() int {
	return t.Config.Index
}

// InstanceContext carries the instance-level settings Recompute depends on.
type InstanceContext struct {
	ObjectAPIName string
	// DecimalPlaces is the instance-wide default; nil means DefaultDecimalPlaces.
	DecimalPlaces *int
	Locale        string
	Formatter     NumberFormatter
	Translator    TranslationService
}

// NewTile builds the initial, recomputed tile for a slot.
func NewTile(cfg TileConfig, ictx InstanceContext) Tile {
	kind := ValidateAggregation(cfg.InitialAggregation)
	return Recompute(Tile{
		Config: cfg,
		State: TileState{
			AggregateType: kind,
			Category:      InferCategory(kind),
		},
	}, ictx)
}

// Recompute rebuilds every derived field of tile from its configuration, state
// and ictx. It must run after every change before the tile is published.
func Recompute(tile Tile, ictx InstanceContext) Tile {
	cfg, state := tile.Config, tile.State

	kind := NormalizeAggregation(string(state.AggregateType))
	if kind == "" {
		kind = NormalizeAggregation(cfg.InitialAggregation)
	}
	kind = ValidateAggregation(string(kind))
	state.AggregateType = kind

	numeric := kind.ProducesNumber(state.IsDate)
	category := ResolveCategory(state.Category, state.IsDate, state.IsCurrency, state.IsPercent)
	allowed := category.AllowedAggregations()

	formatter := ictx.Formatter
	if formatter == nil {
		formatter = defaultFormatter
	}

	view := TileView{
		FieldCategory:       category,
		IsNumericAggregate:  numeric,
		AllowedAggregations: allowed,
		DisplayValue:        displayValue(state, numeric, fractionDigits(cfg, ictx), formatter),
		IsLoading:           state.IsLoading(),
		HasError:            state.Status == StatusError,
	}

	if state.RecordCount != nil {
		count := *state.RecordCount
		view.HasRecordCount = true
		view.SummaryRecordLabel = RecordLabel(formatter.FormatNumber(float64(count), 0), count, ObjectLabel(ictx.ObjectAPIName))
	}

	view.FieldLabelForSummary = FieldLabelForSummary(state.FieldLabel, cfg.Label, cfg.AggregateField)
	view.AggregationPhrase = translateOrFallback(context.Background(), ictx.Translator, kind.translationKey(), ictx.Locale, kind.Phrase(), nil)
	if view.HasRecordCount {
		view.SummaryLabel = fmt.Sprintf("%s of '%s' across %s", view.AggregationPhrase, view.FieldLabelForSummary, view.SummaryRecordLabel)
	} else {
		view.SummaryLabel = fmt.Sprintf("%s of '%s'", view.AggregationPhrase, view.FieldLabelForSummary)
	}

	view.AggregationMenuOptions = menuOptions(allowed, kind)
	view.GearMenuClass = gearMenuClassBase
	if state.IsAggregationMenuOpen {
		view.GearMenuClass += " " + gearMenuClassOpen
	}

	return Tile{Config: cfg, State: state, View: view}
}

func fractionDigits(cfg TileConfig, ictx InstanceContext) int {
	if cfg.DecimalPlaces != nil && *cfg.DecimalPlaces >= 0 {
		return *cfg.DecimalPlaces
	}
	if ictx.DecimalPlaces != nil && *ictx.DecimalPlaces >= 0 {
		return *ictx.DecimalPlaces
	}
	return DefaultDecimalPlaces
}

func displayValue(state TileState, numeric bool, digits int, formatter NumberFormatter) string {
	if isEmptyValue(state.Value) {
		return emptyDisplayValue
	}
	raw := rawText(state.Value)
	if !numeric {
		return raw
	}
	value, ok := toFloat(state.Value)
	if !ok {
		return raw
	}
	formatted := formatter.FormatNumber(value, digits)
	switch {
	case state.IsCurrency:
		return "$" + formatted
	case state.IsPercent:
		return formatted + "%"
	default:
		return formatted
	}
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case json.RawMessage:
		return len(v) == 0 || string(v) == "null"
	default:
		return false
	}
}

func rawText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case []string:
		return strings.Join(v, listSeparator)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if isEmptyValue(item) {
				continue
			}
			parts = append(parts, rawText(item))
		}
		return strings.Join(parts, listSeparator)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err == nil {
			return rawText(decoded)
		}
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func menuOptions(allowed []AggregationKind, selected AggregationKind) []MenuOption {
	options := make([]MenuOption, 0, len(baseMenuOptions))
	for _, option := range baseMenuOptions {
		if allowed != nil && !containsKind(allowed, option.Value) {
			continue
		}
		option.IsSelected = option.Value == selected
		options = append(options, option)
	}
	return options
}

func containsKind(kinds []AggregationKind, kind AggregationKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// loading returns the state entering a new load: result fields are cleared,
// selection and menu state survive.
func (s TileState) loading() TileState {
	return TileState{
		AggregateType:         s.AggregateType,
		Category:              s.Category,
		Status:                StatusLoading,
		IsAggregationMenuOpen: s.IsAggregationMenuOpen,
	}
}

func (s TileState) failed(kind ErrorKind, message string) TileState {
	s.Status = StatusError
	s.ErrorKind = kind
	s.Error = message
	s.Value = nil
	return s
}

func (s TileState) adopt(resp *AggregateResponse) TileState {
	s.RecordCount = resp.RecordCount
	s.IsCurrency = resp.IsCurrency
	s.IsPercent = resp.IsPercent
	s.IsDate = resp.IsDate
	s.FieldLabel = resp.FieldLabel
	s.Category = ResolveCategory(s.Category, s.IsDate, s.IsCurrency, s.IsPercent)
	return s
}
