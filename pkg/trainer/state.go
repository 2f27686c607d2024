package trainer

// State is the mutable training state shared with algorithms.
type State struct {
	Seed      int
	BatchSize int
	Precision string

	Model     Model
	Optimizer Optimizer

	// BaseLR is the optimizer's learning rate before scheduling.
	BaseLR float64

	Epoch           int
	Batch           int
	BatchInEpoch    int
	BatchesPerEpoch int
	MaxBatches      int

	// Extras holds values algorithms publish for each other, keyed by name.
	Extras map[string]any
}

// Progress returns the fraction of training completed, in [0, 1].
func (s *State) Progress() float64 {
	if s.MaxBatches <= 0 {
		return 0
	}
	p := float64(s.Batch) / float64(s.MaxBatches)
	if p > 1 {
		return 1
	}
	return p
}
