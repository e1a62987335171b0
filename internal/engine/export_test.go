package engine

// withLIFOQueue makes the simulator deliver the most recently queued pulse
// first. Test-only: it breaks causal order on purpose.
func withLIFOQueue() SimulatorOption {
	return func(s *Simulator) {
		s.queue.lifo = true
	}
}
