package gauntlet

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/wenzhang-dev/segdeque"
)

var ErrMismatch = errors.New("deque diverged from reference")

// MismatchError reports the first step after which the deque and the
// reference sequence disagree.
type MismatchError struct {
	Step     int
	Op       Op
	What     string
	Expected int
	Got      int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("step %d (%s): %s mismatch: expected %d, got %d",
		e.Step, e.Op, e.What, e.Expected, e.Got)
}

func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

type RunnerOptions struct {
	// directory size of the deque under test, zero means the default
	DirectorySize int

	// optional, every applied step is appended to it
	Trace *TraceWriter

	Logger *zerolog.Logger
}

// Runner replays steps against a segdeque.Deque and a plain slice, and
// checks they agree after every step.
type Runner struct {
	deque *segdeque.Deque[int]
	ref   []int

	// number of applied steps, skipped ones included
	steps   int
	skipped int
	lastOp  Op

	trace  *TraceWriter
	logger *zerolog.Logger
}

func NewRunner(opts *RunnerOptions) (*Runner, error) {
	if opts == nil {
		opts = &RunnerOptions{}
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	d, err := segdeque.NewDequeWithOptions[int](&segdeque.DequeOptions{
		DirectorySize: opts.DirectorySize,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		deque:  d,
		trace:  opts.Trace,
		logger: logger,
	}, nil
}

func (r *Runner) Deque() *segdeque.Deque[int] {
	return r.deque
}

func (r *Runner) Reference() []int {
	return r.ref
}

func (r *Runner) Steps() int {
	return r.steps
}

// Skipped counts pops and accesses that hit an empty deque
func (r *Runner) Skipped() int {
	return r.skipped
}

// Apply runs one step on both sides, then verifies size, front and back.
// The step is traced before it runs so a failing step is always recorded.
func (r *Runner) Apply(step Step) error {
	if r.trace != nil {
		if err := r.trace.Write(step); err != nil {
			return err
		}
	}

	r.steps++
	r.lastOp = step.Op
	n := r.steps

	switch step.Op {
	case OpPushBack:
		r.deque.PushBack(step.Value)
		r.ref = append(r.ref, step.Value)

	case OpPushFront:
		r.deque.PushFront(step.Value)
		r.ref = slices.Insert(r.ref, 0, step.Value)

	case OpPopBack:
		if len(r.ref) == 0 {
			r.skipped++
			break
		}
		if err := r.deque.PopBack(); err != nil {
			return fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		r.ref = r.ref[:len(r.ref)-1]

	case OpPopFront:
		if len(r.ref) == 0 {
			r.skipped++
			break
		}
		if err := r.deque.PopFront(); err != nil {
			return fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		r.ref = slices.Delete(r.ref, 0, 1)

	case OpAccess:
		if len(r.ref) == 0 {
			r.skipped++
			break
		}
		idx := step.Index % len(r.ref)
		got, err := r.deque.Get(idx)
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", n, step.Op, err)
		}
		if got != r.ref[idx] {
			return &MismatchError{Step: n, Op: step.Op, What: fmt.Sprintf("at(%d)", idx), Expected: r.ref[idx], Got: got}
		}

	default:
		return fmt.Errorf("step %d: unknown %s", n, step.Op)
	}

	return r.verify(n, step.Op)
}

func (r *Runner) verify(n int, op Op) error {
	if r.deque.Len() != len(r.ref) {
		return &MismatchError{Step: n, Op: op, What: "size", Expected: len(r.ref), Got: r.deque.Len()}
	}

	if len(r.ref) == 0 {
		return nil
	}

	front, err := r.deque.Front()
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", n, op, err)
	}
	if front != r.ref[0] {
		return &MismatchError{Step: n, Op: op, What: "front", Expected: r.ref[0], Got: front}
	}

	back, err := r.deque.Back()
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", n, op, err)
	}
	if back != r.ref[len(r.ref)-1] {
		return &MismatchError{Step: n, Op: op, What: "back", Expected: r.ref[len(r.ref)-1], Got: back}
	}

	return nil
}

func (r *Runner) ApplyAll(steps []Step) error {
	for _, step := range steps {
		if err := r.Apply(step); err != nil {
			r.logger.Err(err).Int("step", r.steps).Stringer("op", step).Msg("gauntlet diverged")
			return err
		}
	}
	return nil
}

// VerifyAll compares every element, not only the two ends
func (r *Runner) VerifyAll() error {
	if r.deque.Len() != len(r.ref) {
		return &MismatchError{Step: r.steps, Op: r.lastOp, What: "size", Expected: len(r.ref), Got: r.deque.Len()}
	}

	for i, v := range r.deque.All() {
		if v != r.ref[i] {
			return &MismatchError{Step: r.steps, Op: r.lastOp, What: fmt.Sprintf("at(%d)", i), Expected: r.ref[i], Got: v}
		}
	}

	return nil
}
