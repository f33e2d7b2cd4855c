// Package game drives a snake session: the tick timer, input subscription,
// score and game-over bookkeeping around the grid and snake engine.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/hoshinonyaruko/snake-web/grid"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusOver
	StatusBoardFull
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusOver:
		return "over"
	case StatusBoardFull:
		return "board_full"
	}
	return "unknown"
}

// Terminal reports whether the session needs a new game to continue.
func (s Status) Terminal() bool { return s == StatusOver || s == StatusBoardFull }

var (
	ErrNotRunning = errors.New("game: session is not running")
	ErrNotPaused  = errors.New("game: session is not paused")
)

// Options configures a session.
type Options struct {
	Width, Height     int
	StartingLength    int
	StartingHead      structs.Coordinate
	StartingDirection structs.Direction
	TickInterval      time.Duration
	Seed              uint64
}

// DefaultOptions returns a 40x30 board with a seven segment snake at (11,2) heading right.
func DefaultOptions() Options {
	return Options{
		Width:             40,
		Height:            30,
		StartingLength:    7,
		StartingHead:      structs.Coordinate{X: 11, Y: 2},
		StartingDirection: structs.Right,
		TickInterval:      150 * time.Millisecond,
		Seed:              uint64(time.Now().UnixNano()),
	}
}

// Controller owns one grid and one snake. The engine types are not
// synchronized, so every call onto them goes through mu; this keeps Move and
// Reset from ever overlapping between the ticker and HTTP goroutines.
type Controller struct {
	id   string
	opts Options

	mu        sync.Mutex
	grid      *grid.Grid
	snake     *snake.Snake
	status    Status
	score     int
	ticks     int
	startedAt time.Time

	input       InputSource
	unsubscribe func()

	stop     chan struct{}
	epoch    int // bumped by Stop so a ticker caught mid-tick cannot move a new game
	onUpdate []func(structs.GameState)
	onFinish []func(structs.GameState)
}

func New(opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultOptions().TickInterval
	}
	g := grid.New(opts.Width, opts.Height, opts.Seed)
	return &Controller{
		opts:  opts,
		grid:  g,
		snake: snake.New(g),
	}
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) TickInterval() time.Duration { return c.opts.TickInterval }

// OnUpdate registers fn to be called with the state after every tick.
func (c *Controller) OnUpdate(fn func(structs.GameState)) {
	c.mu.Lock()
	c.onUpdate = append(c.onUpdate, fn)
	c.mu.Unlock()
}

// OnFinish registers fn to be called once when a game reaches a terminal status.
func (c *Controller) OnFinish(fn func(structs.GameState)) {
	c.mu.Lock()
	c.onFinish = append(c.onFinish, fn)
	c.mu.Unlock()
}

// Attach subscribes to src. Directions are forwarded while a game is running.
func (c *Controller) Attach(src InputSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribeLocked()
	c.input = src
	if c.status == StatusRunning || c.status == StatusPaused {
		c.subscribeLocked()
	}
}

// Detach drops the input source entirely.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribeLocked()
	c.input = nil
}

func (c *Controller) subscribeLocked() {
	if c.input == nil || c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.input.Subscribe(func(d structs.Direction) {
		if err := c.SetDirection(d); err != nil {
			glog.V(2).Infof("session %s: direction %v dropped: %v", c.id, d, err)
		}
	})
}

func (c *Controller) unsubscribeLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// NewGame stops any running ticker, resets the snake, places the first food
// and marks the session running. Call Run to start ticking.
func (c *Controller) NewGame() structs.GameState {
	c.Stop()

	c.mu.Lock()
	c.snake.Reset(c.opts.StartingLength, c.opts.StartingHead, c.opts.StartingDirection)
	c.score, c.ticks = 0, 0
	c.startedAt = time.Now()
	c.status = StatusRunning
	if _, err := c.grid.RegenerateFood(c.snake.Occupies); err != nil {
		c.status = StatusBoardFull
	}
	var finish []func(structs.GameState)
	if c.status == StatusRunning {
		c.subscribeLocked()
	} else {
		finish = c.onFinish
	}
	st := c.stateLocked()
	c.mu.Unlock()

	glog.Infof("session %s: new game %dx%d, length %d", c.id, st.Width, st.Height, len(st.Body))
	if finish != nil {
		glog.Infof("session %s: %s before the first tick", c.id, st.Status)
		for _, fn := range finish {
			fn(st)
		}
	}
	return st
}

// SetDirection buffers d as the snake's target direction.
func (c *Controller) SetDirection(d structs.Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusRunning {
		return ErrNotRunning
	}
	return c.snake.SetTargetDirection(d)
}

// Tick performs one move and interprets its result. It is a no-op unless
// the session is running.
func (c *Controller) Tick() structs.GameState { return c.tick(-1) }

func (c *Controller) tick(epoch int) structs.GameState {
	c.mu.Lock()
	if c.status != StatusRunning || (epoch >= 0 && epoch != c.epoch) {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}

	c.ticks++
	result := c.snake.Move()
	switch result {
	case snake.Grew:
		c.score++
		if _, err := c.grid.RegenerateFood(c.snake.Occupies); err != nil {
			if !errors.Is(err, grid.ErrBoardExhausted) {
				glog.Errorf("session %s: regenerate food: %v", c.id, err)
			}
			c.status = StatusBoardFull
		}
	case snake.Collided:
		c.status = StatusOver
	}
	glog.V(2).Infof("session %s: tick %d %v head=%v", c.id, c.ticks, result, c.snake.Head())

	var finish []func(structs.GameState)
	if c.status.Terminal() {
		c.unsubscribeLocked()
		finish = c.onFinish
	}
	update := c.onUpdate
	st := c.stateLocked()
	c.mu.Unlock()

	for _, fn := range update {
		fn(st)
	}
	if finish != nil {
		glog.Infof("session %s: %s with score %d after %d ticks", c.id, st.Status, st.Score, st.Ticks)
		for _, fn := range finish {
			fn(st)
		}
	}
	return st
}

// Run ticks at the configured interval until ctx is done, Stop is called or
// the game ends.
func (c *Controller) Run(ctx context.Context) {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	epoch := c.epoch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.stop == stop {
			c.stop = nil
		}
		c.mu.Unlock()
	}()

	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			c.tick(epoch)
			if c.Status().Terminal() {
				return
			}
		}
	}
}

// Stop halts a running ticker. The session state is kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.epoch++
	c.mu.Unlock()
}

func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusRunning {
		return ErrNotRunning
	}
	c.status = StatusPaused
	return nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPaused {
		return ErrNotPaused
	}
	c.status = StatusRunning
	return nil
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// State returns a snapshot for renderers and the HTTP layer.
func (c *Controller) State() structs.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() structs.GameState {
	w, h := c.grid.Dimensions()
	st := structs.GameState{
		SessionID: c.id,
		Width:     w,
		Height:    h,
		Body:      c.snake.Body(),
		Direction: c.snake.CurrentDirection().String(),
		Score:     c.score,
		Ticks:     c.ticks,
		Status:    c.status.String(),
	}
	if food, ok := c.grid.CurrentFood(); ok {
		st.Food = &food
	}
	if !c.startedAt.IsZero() {
		st.StartedAt = c.startedAt.Unix()
	}
	return st
}
