package structs

import "fmt"

// Coordinate 描述棋盘上的一个格子。
type Coordinate struct {
	X int `json:"x"` // X坐标，0 <= X < width
	Y int `json:"y"` // Y坐标，0 <= Y < height
}

// Direction is a unit step along exactly one axis.
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	Right = Direction{X: 1, Y: 0}
	Left  = Direction{X: -1, Y: 0}
	Up    = Direction{X: 0, Y: 1}
	Down  = Direction{X: 0, Y: -1}
)

// Valid reports whether exactly one axis is non-zero with magnitude 1.
func (d Direction) Valid() bool {
	return abs(d.X)+abs(d.Y) == 1
}

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	return Direction{X: -d.X, Y: -d.Y}
}

// IsOpposite reports whether d and o cancel out component-wise.
func (d Direction) IsOpposite(o Direction) bool {
	return d.X+o.X == 0 && d.Y+o.Y == 0
}

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("(%d,%d)", d.X, d.Y)
}

// ParseDirection maps the input names used by the browser client to a Direction.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "right":
		return Right, nil
	case "left":
		return Left, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return Direction{}, fmt.Errorf("invalid direction '%s' provided", name)
}

// Step moves one unit in d, wrapping each axis so that leaving one edge
// re-enters from the opposite edge.
func (c Coordinate) Step(d Direction, width, height int) Coordinate {
	x, y := WrapPosition(c.X+d.X, c.Y+d.Y, width, height)
	return Coordinate{X: x, Y: y}
}

// WrapPosition 确保位置不会超出地图边界
func WrapPosition(x, y, width, height int) (int, int) {
	x = (x%width + width) % width
	y = (y%height + height) % height
	return x, y
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// GameState 描述一局游戏对外可见的状态，供渲染和接口返回使用。
type GameState struct {
	SessionID string       `json:"session_id"`           // 会话标识
	Width     int          `json:"width"`                // 地图宽度
	Height    int          `json:"height"`               // 地图高度
	Body      []Coordinate `json:"body"`                 // 蛇身，下标0为蛇头
	Food      *Coordinate  `json:"food,omitempty"`       // 食物位置，棋盘满时为空
	Direction string       `json:"direction"`            // 当前移动方向
	Score     int          `json:"score"`                // 自上次重置以来吃到的食物数
	Ticks     int          `json:"ticks"`                // 已执行的移动次数
	Status    string       `json:"status"`               // running / paused / over / board_full
	StartedAt int64        `json:"started_at,omitempty"` // 开局时间，时间戳
}

// Result 描述一局结束的游戏，写入成绩表。
type Result struct {
	SessionID  string `json:"session_id"`
	Score      int    `json:"score"`
	Ticks      int    `json:"ticks"`
	Length     int    `json:"length"`
	Outcome    string `json:"outcome"`
	FinishedAt int64  `json:"finished_at"`
}
