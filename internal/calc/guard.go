package calc

// DefaultMaxDigits is the number of digits a user may type per operand.
const DefaultMaxDigits = 9

// Guarded is a State with the digit counter of the operand being typed.
type Guarded struct {
	State
	Digits int
}

// NewGuarded returns the initial guarded state.
func NewGuarded() Guarded { return Guarded{State: NewState()} }

// Limiter caps operand length on top of Reduce.
type Limiter struct {
	Max int
}

// NewLimiter returns a Limiter allowing max digits per operand. A
// non-positive max selects DefaultMaxDigits.
func NewLimiter(max int) Limiter {
	if max <= 0 {
		max = DefaultMaxDigits
	}
	return Limiter{Max: max}
}

// Reduce is Step without the accepted flag.
func (l Limiter) Reduce(g Guarded, a Action) Guarded {
	next, _ := l.Step(g, a)
	return next
}

// Step applies a and reports whether it was accepted. Digits and points are
// rejected once the operand holds Max digits. A point only costs a slot when
// it starts a new operand; +/- keeps the counter and any other key resets it.
func (l Limiter) Step(g Guarded, a Action) (Guarded, bool) {
	if _, ok := a.IsDigit(); ok {
		if g.Digits >= l.Max {
			return g, false
		}
		return Guarded{State: Reduce(g.State, a), Digits: g.Digits + 1}, true
	}

	switch a.Key() {
	case KeyPoint:
		if g.Digits >= l.Max {
			return g, false
		}
		digits := g.Digits + 1
		if _, typing := g.Phase().(NumberEntered); typing {
			digits = g.Digits
		}
		return Guarded{State: Reduce(g.State, a), Digits: digits}, true
	case KeySign:
		return Guarded{State: Reduce(g.State, a), Digits: g.Digits}, true
	}
	return Guarded{State: Reduce(g.State, a), Digits: 0}, true
}

// Run folds actions through the limiter and returns the final state and the
// number of rejected actions.
func (l Limiter) Run(g Guarded, actions ...Action) (Guarded, int) {
	rejected := 0
	for _, a := range actions {
		var ok bool
		if g, ok = l.Step(g, a); !ok {
			rejected++
		}
	}
	return g, rejected
}
