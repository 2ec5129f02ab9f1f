package rollup

import "context"

// AggregationService executes an aggregate query for a single tile. A nil
// response with a nil error is a valid "no data" outcome.
type AggregationService interface {
	Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResponse, error)
}

// AggregationServiceFunc adapts a function into an AggregationService.
type AggregationServiceFunc func(ctx context.Context, req AggregateRequest) (*AggregateResponse, error)

// Aggregate implements AggregationService.
func (f AggregationServiceFunc) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResponse, error) {
	return f(ctx, req)
}

// AggregateRequest is the wire contract consumed by the Aggregation Service.
// Grandchild identifiers are nil unless the grid runs in grandchild mode.
type AggregateRequest struct {
	ParentID                           string  `json:"parentId"`
	ChildObjectAPIName                 string  `json:"childObjectApiName"`
	RelationshipFieldAPIName           string  `json:"relationshipFieldApiName"`
	AggregateFieldAPIName              string  `json:"aggregateFieldApiName"`
	AggregateType                      string  `json:"aggregateType"`
	FilterCondition                    string  `json:"filterCondition"`
	GrandchildObjectAPIName            *string `json:"grandchildObjectApiName"`
	GrandchildRelationshipFieldAPIName *string `json:"grandchildRelationshipFieldApiName"`
}

// AggregateResponse carries the aggregated value plus metadata. ErrorMessage is
// set when the service ran but reported a domain-level problem.
type AggregateResponse struct {
	Value        any    `json:"value"`
	RecordCount  *int   `json:"recordCount"`
	IsCurrency   bool   `json:"isCurrency"`
	IsPercent    bool   `json:"isPercent"`
	IsDate       bool   `json:"isDate"`
	FieldLabel   string `json:"fieldLabel"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
