package grid

import "errors"

var (
	// ErrInvalidDimensions is returned when a grid is built with a
	// non-positive extent or cell count.
	ErrInvalidDimensions = errors.New("grid: null or negative area")
	// ErrOutOfRange is returned for a column or row index beyond the grid.
	ErrOutOfRange = errors.New("grid: index out of range")
	// ErrPointOutsideCell is returned when a cell is asked to interpolate at
	// a point it does not contain.
	ErrPointOutsideCell = errors.New("grid: point outside cell boundaries")
	// ErrLengthMismatch is returned when a per-cell vector has the wrong length.
	ErrLengthMismatch = errors.New("grid: vector length does not match grid size")
)

// Label describes what a cell contains.
type Label uint8

const (
	Empty Label = iota
	Solid
	Fluid
)

func (l Label) String() string {
	switch l {
	case Empty:
		return "EMPTY"
	case Solid:
		return "SOLID"
	case Fluid:
		return "FLUID"
	}
	return "UNKNOWN"
}

// Status marks whether a cell currently takes part in the simulation.
type Status uint8

const (
	Inactive Status = iota
	Active
)

func (s Status) String() string {
	if s == Active {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// Direction names one of the four neighbours of a cell.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists the four neighbour directions in storage order.
var Directions = [4]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	}
	return "?"
}

// noNeighbour marks a missing neighbour at the domain edge.
const noNeighbour = -1
