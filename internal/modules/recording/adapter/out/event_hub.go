package out

import (
	"sync"

	"callrec/internal/modules/recording/dto"
	recordingout "callrec/internal/modules/recording/port/out"
)

// MemoryEventHub delivers each event to every current subscriber. A
// subscriber whose buffer is full misses the event.
type MemoryEventHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan dto.CompletionEvent
}

func NewMemoryEventHub() recordingout.EventHub {
	return &MemoryEventHub{subs: map[int]chan dto.CompletionEvent{}}
}

func (h *MemoryEventHub) Publish(event dto.CompletionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *MemoryEventHub) Subscribe(buffer int) (<-chan dto.CompletionEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan dto.CompletionEvent, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}
