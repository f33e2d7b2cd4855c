// 关于蛇的移动、进食与碰撞
package snake

import (
	"errors"

	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// ErrInvalidDirection is returned for vectors that are not one of the four unit directions.
var ErrInvalidDirection = errors.New("snake: invalid direction")

// MoveResult is the outcome of a single tick.
type MoveResult int

const (
	Advanced MoveResult = iota
	Grew
	Collided
)

func (r MoveResult) String() string {
	switch r {
	case Advanced:
		return "advanced"
	case Grew:
		return "grew"
	case Collided:
		return "collided"
	}
	return "unknown"
}

// Board is what the snake needs to know about the grid it travels on.
type Board interface {
	Dimensions() (width, height int)
	CurrentFood() (structs.Coordinate, bool)
}

// Snake owns its body and both direction fields. It is not safe for
// concurrent use; the caller serializes Move, Reset and SetTargetDirection.
type Snake struct {
	board    Board
	body     []structs.Coordinate // 下标0为蛇头
	occupied map[structs.Coordinate]struct{}
	current  structs.Direction
	target   structs.Direction
	dead     bool
}

// New returns a one-segment snake at the origin heading right.
func New(board Board) *Snake {
	s := &Snake{board: board}
	s.Reset(1, structs.Coordinate{}, structs.Right)
	return s
}

// SetTargetDirection buffers d for the next Move. The reversal guard is not
// applied here; only the last direction set before a tick counts.
func (s *Snake) SetTargetDirection(d structs.Direction) error {
	if !d.Valid() {
		return ErrInvalidDirection
	}
	s.target = d
	return nil
}

// Move advances the snake one cell. A Collided result leaves the body
// untouched and sticks until Reset.
func (s *Snake) Move() MoveResult {
	if s.dead {
		return Collided
	}

	// 反向输入被忽略，继续沿当前方向
	if !s.target.IsOpposite(s.current) {
		s.current = s.target
	}

	width, height := s.board.Dimensions()
	head := s.body[0].Step(s.current, width, height)

	// The tail cell counts as occupied even though it would be vacated.
	if _, hit := s.occupied[head]; hit {
		s.dead = true
		return Collided
	}

	s.body = append(s.body, structs.Coordinate{})
	copy(s.body[1:], s.body)
	s.body[0] = head
	s.occupied[head] = struct{}{}

	if food, ok := s.board.CurrentFood(); ok && food == head {
		return Grew
	}

	tail := s.body[len(s.body)-1]
	s.body = s.body[:len(s.body)-1]
	delete(s.occupied, tail)
	return Advanced
}

// Reset rebuilds the body with length segments running backward from head,
// opposite to dir, and sets both directions to dir. Length is clamped to
// [1, board extent along dir] so the starting body never overlaps itself.
// An invalid dir falls back to Right.
func (s *Snake) Reset(length int, head structs.Coordinate, dir structs.Direction) {
	if !dir.Valid() {
		glog.V(1).Infof("snake: starting direction %v is invalid, using right", dir)
		dir = structs.Right
	}
	width, height := s.board.Dimensions()
	extent := width
	if dir.X == 0 {
		extent = height
	}
	requested := length
	if length > extent {
		length = extent
	}
	if length < 1 {
		length = 1
	}
	if length != requested {
		glog.V(1).Infof("snake: starting length %d clamped to %d on a %dx%d board heading %v", requested, length, width, height, dir)
	}

	x, y := structs.WrapPosition(head.X, head.Y, width, height)
	cur := structs.Coordinate{X: x, Y: y}
	back := dir.Opposite()

	s.body = make([]structs.Coordinate, 0, length)
	s.occupied = make(map[structs.Coordinate]struct{}, length)
	for i := 0; i < length; i++ {
		s.body = append(s.body, cur)
		s.occupied[cur] = struct{}{}
		cur = cur.Step(back, width, height)
	}
	s.current, s.target = dir, dir
	s.dead = false
}

// Body returns a copy of the body, head first.
func (s *Snake) Body() []structs.Coordinate {
	out := make([]structs.Coordinate, len(s.body))
	copy(out, s.body)
	return out
}

func (s *Snake) Head() structs.Coordinate { return s.body[0] }

func (s *Snake) Len() int { return len(s.body) }

// Occupies reports whether c is part of the body.
func (s *Snake) Occupies(c structs.Coordinate) bool {
	_, ok := s.occupied[c]
	return ok
}

func (s *Snake) CurrentDirection() structs.Direction { return s.current }

func (s *Snake) TargetDirection() structs.Direction { return s.target }
