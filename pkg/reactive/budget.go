package reactive

// flushBudget counts effect runs within one flush. An effect that keeps
// re-triggering itself (directly or through other effects) exhausts its
// budget and aborts the flush instead of looping forever.
type flushBudget struct {
	// max is the per-effect limit. Values <= 0 disable the check.
	max  int
	runs map[*Effect]int
}

// spend charges one run to e. It returns the run count and false once the
// count exceeds the limit.
func (b *flushBudget) spend(e *Effect) (int, bool) {
	if b.max <= 0 {
		return 0, true
	}
	if b.runs == nil {
		b.runs = make(map[*Effect]int)
	}
	b.runs[e]++
	n := b.runs[e]
	return n, n <= b.max
}

func (b *flushBudget) reset() {
	clear(b.runs)
}
