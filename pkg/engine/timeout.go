package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/trackset/pkg/assembly"
)

// DefaultTimeout is the limit for a single evaluation unless WithTimeout
// overrides it.
const DefaultTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned when a newer Evaluate call started
	// before this one finished. Editors debouncing keystrokes can
	// ignore it.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")

	// ErrTimeout is returned when an evaluation runs past its limit.
	ErrTimeout = errors.New("engine: evaluation timed out")
)

// outcome carries one evaluation's results back from its goroutine.
type outcome struct {
	scene  *assembly.Scene
	errors []EvalError
	err    error
}

// tickets numbers evaluations so that only the latest one delivers a
// scene.
type tickets struct {
	mu     sync.Mutex
	latest uint64
}

// issue returns a ticket newer than every earlier one.
func (t *tickets) issue() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest++
	return t.latest
}

func (t *tickets) isLatest(ticket uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ticket == t.latest
}

// await waits up to limit for the outcome of the evaluation holding
// ticket. A goroutine that outlives the limit keeps running; its result
// is dropped because nothing reads ch again.
func (t *tickets) await(ch <-chan outcome, ticket uint64, limit time.Duration) (*assembly.Scene, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !t.isLatest(ticket) {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, limit)
	}
}
