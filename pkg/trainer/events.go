package trainer

import "context"

// Event marks a point in the training loop.
type Event int

const (
	EventFitStart Event = iota + 1
	EventEpochStart
	EventBatchStart
	EventBatchEnd
	EventEpochEnd
	EventFitEnd
)

var eventNames = map[Event]string{
	EventFitStart:   "fit_start",
	EventEpochStart: "epoch_start",
	EventBatchStart: "batch_start",
	EventBatchEnd:   "batch_end",
	EventEpochEnd:   "epoch_end",
	EventFitEnd:     "fit_end",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// Model is the network being trained.
type Model interface {
	NumParams() int
}

// Optimizer updates model parameters once per batch.
type Optimizer interface {
	LR() float64
	SetLR(lr float64)
	Step(ctx context.Context, s *State) error
}

// Scheduler returns the factor applied to the base learning rate at the
// current point of training. Factors of several schedulers multiply.
type Scheduler interface {
	Factor(s *State) float64
}

// Algorithm modifies training when one of its events fires.
type Algorithm interface {
	Match(e Event, s *State) bool
	Apply(ctx context.Context, e Event, s *State) error
}
