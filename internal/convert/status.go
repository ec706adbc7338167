package convert

import "context"

// Status is the lifecycle state of a conversion as shown by a front-end.
type Status int

const (
	StatusIdle Status = iota
	StatusReady
	StatusRunning
	StatusFinishing
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusFinishing:
		return "finishing"
	case StatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// a run publishes at most ready, running, finishing and complete or idle
const statusBuffer = 4

// Run is a conversion executing on its own goroutine.
type Run struct {
	statuses chan Status
	done     chan struct{}
	result   *Result
	err      error
}

// Start runs the conversion in the background. Status changes are published
// on Run.Status, which is closed when the run ends.
func (c *Converter) Start(ctx context.Context, req Request) *Run {
	r := &Run{
		statuses: make(chan Status, statusBuffer),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(r.done)
		defer close(r.statuses)
		r.result, r.err = c.run(ctx, req, func(s Status) {
			c.notify(s)
			select {
			case r.statuses <- s:
			default:
			}
		})
	}()

	return r
}

// Status returns the channel of status changes.
func (r *Run) Status() <-chan Status {
	return r.statuses
}

// Wait blocks until the run ends.
func (r *Run) Wait() (*Result, error) {
	<-r.done
	return r.result, r.err
}
