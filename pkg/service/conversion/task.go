package conversion

import (
	"context"

	"github.com/google/uuid"
)

// Task is a handle on one LoadCurrencies or Convert call.
type Task struct {
	id   uuid.UUID
	op   string
	done chan struct{}
	err  error
}

func newTask(op string) *Task {
	return &Task{
		id:   uuid.New(),
		op:   op,
		done: make(chan struct{}),
	}
}

func (t *Task) ID() uuid.UUID {
	return t.id
}

func (t *Task) Op() string {
	return t.op
}

// Done is closed once the task has settled and its outcome is visible in the
// state (unless the service was closed first).
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the operation error once the task is done, nil before that.
// The same failure is also reported through State.Error.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task settles or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) settle(err error) {
	t.err = err
	close(t.done)
}

func settledTask(op string, err error) *Task {
	t := newTask(op)
	t.settle(err)
	return t
}
