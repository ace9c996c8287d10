package confirm

import (
	"context"
	"sync"
)

// Task is a cancellable handle to an in-flight confirmation. Created by
// Poller.Start; the result becomes available once Done is closed.
type Task struct {
	signature string
	cancel    context.CancelFunc
	done      chan struct{}

	mu     sync.Mutex
	result Result
}

// Start tracks the signature in the background and returns immediately.
func (p *Poller) Start(ctx context.Context, signature string) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		signature: signature,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	go func() {
		defer cancel()
		res := p.Confirm(taskCtx, signature)
		t.mu.Lock()
		t.result = res
		t.mu.Unlock()
		close(t.done)
	}()

	return t
}

// Signature returns the tracked signature.
func (t *Task) Signature() string {
	return t.signature
}

// Cancel stops tracking. The task settles with StatusPending; the
// transaction itself is unaffected.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome. The second return value is false while the
// task is still running.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
	default:
		return Result{Signature: t.signature, Status: StatusPending}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, true
}
