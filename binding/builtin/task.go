package builtin

import (
	"sync"
	"time"

	"github.com/ardnew/bindc/binding/tree"
)

// Task is a deferred computation. It runs at most once, on the first call
// to Wait or Result.
type Task struct {
	once  sync.Once
	run   func() (any, error)
	value any
	err   error
}

// NewTask returns a task computing fn.
func NewTask(fn func() (any, error)) *Task {
	return &Task{run: fn}
}

// Wait runs the task if it has not run yet and returns its error.
func (t *Task) Wait() error {
	t.once.Do(func() {
		if t.run != nil {
			t.value, t.err = t.run()
		}
	})

	return t.err
}

// Result waits for the task and returns its value.
func (t *Task) Result() (any, error) {
	err := t.Wait()

	return t.value, err
}

// FromResult returns a completed task holding v.
func FromResult(v any) *Task {
	return NewTask(func() (any, error) { return v, nil })
}

// Delay returns a task that completes after d.
func Delay(d time.Duration) *Task {
	return NewTask(func() (any, error) {
		time.Sleep(d)

		return nil, nil
	})
}

// Then sequences next after first. The value of next becomes the value of
// the returned task; a deferred value is awaited as well.
func Then(first tree.Deferred, next func() any) *Task {
	return NewTask(func() (any, error) {
		if err := first.Wait(); err != nil {
			return nil, err
		}

		v := next()
		if d, ok := v.(tree.Deferred); ok {
			if err := d.Wait(); err != nil {
				return nil, err
			}

			if t, ok := d.(*Task); ok {
				return t.value, nil
			}
		}

		return v, nil
	})
}

// ThenDo sequences a statement after first.
func ThenDo(first tree.Deferred, next func()) *Task {
	return NewTask(func() (any, error) {
		if err := first.Wait(); err != nil {
			return nil, err
		}

		next()

		return nil, nil
	})
}
