package calc

import "fmt"

// Phase is the calculator phase. Each phase type carries only the fields that
// are meaningful while the calculator is in it.
type Phase interface {
	phaseName() string
}

// Initial is the all-clear phase.
type Initial struct{}

// NumberEntered is active while an operand is being typed or shown.
type NumberEntered struct {
	Current Number
	// Cursor is 0 outside fractional entry; n>0 means the next digit is the
	// n-th fractional digit.
	Cursor int
	// Typing is set while digits extend Current rather than replace it.
	Typing bool
	// Cleared is set by C and reset by the next digit or point.
	Cleared bool
}

// OperatorEntered is active while an operator awaits its right operand.
// Current shows the resolved left-hand side.
type OperatorEntered struct {
	Current Number
	Cleared bool
}

// Evaluated is active after =.
type Evaluated struct {
	Current Number
	Cleared bool
}

func (Initial) phaseName() string         { return "initial" }
func (NumberEntered) phaseName() string   { return "number_entered" }
func (OperatorEntered) phaseName() string { return "operator_entered" }
func (Evaluated) phaseName() string       { return "evaluated" }

// Repeat is the operation a bare = re-applies after an evaluation.
type Repeat struct {
	Op      Op
	Operand Number
}

func (r Repeat) apply(n Number) Number { return Apply(r.Op, n, r.Operand) }

// State is an immutable calculator snapshot. The zero value is the initial
// state.
type State struct {
	phase   Phase
	stack   Stack
	pending *Repeat
}

// NewState returns the initial state.
func NewState() State { return State{phase: Initial{}} }

// Phase returns the current phase.
func (s State) Phase() Phase {
	if s.phase == nil {
		return Initial{}
	}
	return s.phase
}

// PhaseName returns a stable name for the phase, e.g. "operator_entered".
func (s State) PhaseName() string { return s.Phase().phaseName() }

// Stack returns the expression stack.
func (s State) Stack() Stack { return s.stack }

// Pending returns the repeat operation armed for a bare =.
func (s State) Pending() (Repeat, bool) {
	if s.pending == nil {
		return Repeat{}, false
	}
	return *s.pending, true
}

func (s State) current() Number {
	switch p := s.Phase().(type) {
	case NumberEntered:
		return p.Current
	case OperatorEntered:
		return p.Current
	case Evaluated:
		return p.Current
	}
	return Zero()
}

func (s State) cleared() bool {
	switch p := s.Phase().(type) {
	case NumberEntered:
		return p.Cleared
	case OperatorEntered:
		return p.Cleared
	case Evaluated:
		return p.Cleared
	}
	return false
}

func (s State) with(p Phase) State {
	s.phase = p
	return s
}

// String is a compact dump used in logs and golden traces.
func (s State) String() string {
	out := fmt.Sprintf("%s current=%s stack=[%s]", s.PhaseName(), s.current(), s.stack)
	if p, ok := s.Phase().(NumberEntered); ok {
		out += fmt.Sprintf(" cursor=%d typing=%t", p.Cursor, p.Typing)
	}
	if r, ok := s.Pending(); ok {
		out += fmt.Sprintf(" repeat=%s%s", r.Op, r.Operand)
	}
	if s.cleared() {
		out += " cleared"
	}
	return out
}
