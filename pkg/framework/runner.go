package framework

import (
	"context"
	"errors"
	"io"
	"strconv"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// NameOf returns the name of a Runnable, or fallback if it has none.
func NameOf(runnable Runnable, fallback string) string {
	if named, ok := runnable.(Named); ok {
		return named.Name()
	}
	return fallback
}

// Runner spawns tasks and collects their exit errors.
type Runner struct {
	Context context.Context
	Tasks   []Runnable

	errCh  chan error
	exitCh chan struct{}
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with a specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error, 1),
		exitCh:  make(chan struct{}),
	}
}

// Go spawns tasks with the runner context.
func (r *Runner) Go(tasks ...Runnable) *Runner {
	return r.GoWith(r.Context, tasks...)
}

// GoWith spawns tasks with a specified context.
func (r *Runner) GoWith(ctx context.Context, tasks ...Runnable) *Runner {
	for _, task := range tasks {
		name := NameOf(task, strconv.Itoa(len(r.Tasks)))
		r.Tasks = append(r.Tasks, task)
		vlogf(4, "start task[%s]", name)
		go func(task Runnable, name string) {
			vlogf(4, "task[%s] started", name)
			err := task.Run(ctx)
			vlogf(4, "task[%s] stopped: %v", name, err)
			r.errCh <- err
		}(task, name)
	}
	return r
}

// Wait waits until all tasks stop and aggregates errors.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Tasks {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case err := <-r.errCh:
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// Run spawns the tasks, waits for all of them and returns the aggregated error.
func (r *Runner) Run(tasks ...Runnable) error {
	return r.Go(tasks...).Wait()
}

// RunWithContextCancel runs a func which doesn't accept a context.
// onCancel is called only when the context is canceled.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return context.Canceled
	case err := <-errCh:
		return err
	}
}

// RunWithContextCloser ensures closer.Close is called on cancel or when fn exits.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var closed bool
	err := RunWithContextCancel(ctx, func() {
		closer.Close()
		closed = true
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
