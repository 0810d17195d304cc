package scheduler

import (
	"sync"

	"github.com/organization-ai-projects/simcore/internal/core"
)

type pendingInput struct {
	system  core.SystemID
	kind    core.EventKind
	payload []byte
}

// inputQueue is a thread-safe FIFO of submitted inputs, drained once per
// tick boundary. Unbounded so Submit never blocks a producer.
type inputQueue struct {
	mu    sync.Mutex
	items []pendingInput
}

func newInputQueue() *inputQueue {
	return &inputQueue{items: make([]pendingInput, 0, 16)}
}

func (q *inputQueue) push(in pendingInput) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, in)
}

// drain removes and returns everything queued, in submission order.
func (q *inputQueue) drain() []pendingInput {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = make([]pendingInput, 0, cap(out))
	return out
}

func (q *inputQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
