package surface

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Run once the UI context has shut down
var ErrClosed = errors.New("ui context closed")

// DefaultQueueSize is used when NewUIContext is given a non-positive size
const DefaultQueueSize = 16

// Action is a unit of work that runs on the UI context
type Action func(s *Surface)

// request is a queued action with its completion channel
type request struct {
	action Action
	done   chan error
}

// UIContext owns a Surface and runs actions against it one at a time,
// in the order they were submitted.
type UIContext struct {
	surface  *Surface
	queue    chan request
	stopChan chan struct{}
	wg       sync.WaitGroup

	// mu guards closed; Run holds the read lock across its send so that
	// Close never races a late submission into a drained queue
	mu     sync.RWMutex
	closed bool
}

// NewUIContext starts the worker goroutine that owns s
func NewUIContext(s *Surface, queueSize int) *UIContext {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	uc := &UIContext{
		surface:  s,
		queue:    make(chan request, queueSize),
		stopChan: make(chan struct{}),
	}

	uc.wg.Add(1)
	go uc.worker()

	return uc
}

// worker processes actions in FIFO order. Once stopChan is closed it stops
// taking work, even if the queue is not empty.
func (uc *UIContext) worker() {
	defer uc.wg.Done()

	for {
		select {
		case <-uc.stopChan:
			uc.drain()
			return
		default:
		}

		select {
		case req := <-uc.queue:
			req.done <- uc.execute(req.action)
		case <-uc.stopChan:
			uc.drain()
			return
		}
	}
}

// execute runs one action, turning a panic into an error for the caller
func (uc *UIContext) execute(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ui action panicked: %v", r)
		}
	}()

	action(uc.surface)
	return nil
}

// drain rejects everything still queued at shutdown
func (uc *UIContext) drain() {
	for {
		select {
		case req := <-uc.queue:
			req.done <- ErrClosed
		default:
			return
		}
	}
}

// Run schedules action on the UI context and blocks until it has run.
// There is no timeout: a stalled action stalls every caller behind it.
func (uc *UIContext) Run(action Action) error {
	req := request{
		action: action,
		done:   make(chan error, 1),
	}

	uc.mu.RLock()
	if uc.closed {
		uc.mu.RUnlock()
		return ErrClosed
	}
	uc.queue <- req
	uc.mu.RUnlock()

	return <-req.done
}

// Close stops the worker. Actions already queued are rejected with ErrClosed.
func (uc *UIContext) Close() error {
	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return nil
	}
	uc.closed = true
	uc.mu.Unlock()

	close(uc.stopChan)
	uc.wg.Wait()
	return nil
}
