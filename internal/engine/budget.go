package engine

// DefaultMaxTriggers bounds a period search when no limit is given.
// Real puzzle inputs settle within a few thousand triggers; a search that
// reaches this many is almost certainly brute-forcing an LCM-sized answer.
const DefaultMaxTriggers int64 = 1 << 20

// triggerBudget counts presses made by a search and enforces a limit.
//
// A limit of 0 or less means unlimited. Check is called before each press,
// so a budget of n allows exactly n triggers.
type triggerBudget struct {
	limit int64
	used  int64
}

func newTriggerBudget(limit int64) *triggerBudget {
	return &triggerBudget{limit: limit}
}

// Check reserves one trigger, returning a RuntimeError if none are left.
func (b *triggerBudget) Check(module string, current int64) error {
	if b.limit > 0 && b.used >= b.limit {
		return NewTriggerLimitError(module, current, b.limit)
	}
	b.used++
	return nil
}

// Used returns the number of triggers reserved so far.
func (b *triggerBudget) Used() int64 {
	return b.used
}
