package commands

import (
	"errors"

	"github.com/goliatone/go-rollup/components/rollup"
)

// GridResolver looks up a grid by instance id. *rollup.Controller satisfies it.
type GridResolver interface {
	Grid(instanceID int) (*rollup.Grid, error)
}

var errMissingResolver = errors.New("commands: grid resolver not configured")

func resolve(resolver GridResolver, instanceID int) (*rollup.Grid, error) {
	if resolver == nil {
		return nil, errMissingResolver
	}
	return resolver.Grid(instanceID)
}
