package game

import (
	"sync"

	"github.com/hoshinonyaruko/snake-web/structs"
)

// InputSource delivers directional events. Subscribe returns a function that
// removes the handler again.
type InputSource interface {
	Subscribe(handler func(structs.Direction)) (unsubscribe func())
}

// DirectionFeed is an in-process InputSource. The HTTP layer publishes the
// browser's arrow keys into it.
type DirectionFeed struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(structs.Direction)
}

func NewDirectionFeed() *DirectionFeed {
	return &DirectionFeed{handlers: make(map[int]func(structs.Direction))}
}

func (f *DirectionFeed) Subscribe(handler func(structs.Direction)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.handlers[id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.handlers, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers d to every current subscriber and reports how many received it.
func (f *DirectionFeed) Publish(d structs.Direction) int {
	f.mu.Lock()
	hs := make([]func(structs.Direction), 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()

	for _, h := range hs {
		h(d)
	}
	return len(hs)
}
