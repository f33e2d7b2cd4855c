// Package grid holds the toroidal board and its single food cell.
package grid

import (
	"errors"

	"github.com/hoshinonyaruko/snake-web/structs"
	"golang.org/x/exp/rand"
)

var (
	// ErrBoardExhausted is returned when every cell is occupied and food cannot be placed.
	ErrBoardExhausted = errors.New("grid: no free cell left for food")
	ErrOutOfBounds    = errors.New("grid: coordinate out of bounds")
)

// Grid is a fixed-size board whose edges wrap around. It tracks at most one
// food cell; snake occupancy is supplied by the caller.
type Grid struct {
	width, height int
	food          structs.Coordinate
	hasFood       bool
	rng           *rand.Rand
}

// New creates a grid. Non-positive dimensions are clamped to 1.
func New(width, height int, seed uint64) *Grid {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Grid{
		width:  width,
		height: height,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (g *Grid) Dimensions() (int, int) { return g.width, g.height }

// Capacity is the total number of cells on the board.
func (g *Grid) Capacity() int { return g.width * g.height }

func (g *Grid) Contains(c structs.Coordinate) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// CurrentFood returns the food cell, if any.
func (g *Grid) CurrentFood() (structs.Coordinate, bool) {
	return g.food, g.hasFood
}

// PlaceFood puts the food on a specific cell.
func (g *Grid) PlaceFood(c structs.Coordinate) error {
	if !g.Contains(c) {
		return ErrOutOfBounds
	}
	g.food, g.hasFood = c, true
	return nil
}

func (g *Grid) ClearFood() {
	g.food, g.hasFood = structs.Coordinate{}, false
}

// RegenerateFood moves the food to a uniformly random cell for which
// isOccupied returns false. Sampling is bounded to Capacity draws; after that
// the free cells are enumerated so a dense board still terminates. If no cell
// is free the food is cleared and ErrBoardExhausted is returned.
func (g *Grid) RegenerateFood(isOccupied func(structs.Coordinate) bool) (structs.Coordinate, error) {
	for i := 0; i < g.Capacity(); i++ {
		c := structs.Coordinate{X: g.rng.Intn(g.width), Y: g.rng.Intn(g.height)}
		if !isOccupied(c) {
			g.food, g.hasFood = c, true
			return c, nil
		}
	}

	var free []structs.Coordinate
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := structs.Coordinate{X: x, Y: y}
			if !isOccupied(c) {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		g.ClearFood()
		return structs.Coordinate{}, ErrBoardExhausted
	}
	c := free[g.rng.Intn(len(free))]
	g.food, g.hasFood = c, true
	return c, nil
}
