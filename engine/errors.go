package engine

import (
	"errors"
	"fmt"
)

// UnitError records the failure of one (tile, key-byte position) unit.
type UnitError struct {
	Tile     Tile
	Position int
	Err      error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("tile %v key byte %d: %v", e.Tile, e.Position, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

var errMissing = errors.New("no result for this position")
