package calc

import "github.com/cockroachdb/apd/v3"

// CurrentValue returns the value to display.
func CurrentValue(s State) *apd.Decimal { return s.current().Decimal() }

// CurrentNumber is CurrentValue as a Number.
func CurrentNumber(s State) Number { return s.current() }

// Display is CurrentValue formatted as a plain decimal string.
func Display(s State) string { return s.current().String() }

// ActiveOperator returns the operator button to highlight. It is reported
// while an operator awaits its right operand, and after C has cleared the
// operand that was being typed for it.
func ActiveOperator(s State) (Op, bool) {
	switch p := s.Phase().(type) {
	case OperatorEntered:
		return s.stack.TopOperator()
	case NumberEntered:
		if p.Cleared {
			return s.stack.TopOperator()
		}
	}
	return 0, false
}

// IsInputActive reports whether the clear key should read "C" rather than
// "AC".
func IsInputActive(s State) bool {
	if _, ok := s.Phase().(Initial); ok {
		return false
	}
	return !s.cleared()
}

// ClearLabel returns "C" or "AC" for the clear key.
func ClearLabel(s State) Key {
	if IsInputActive(s) {
		return KeyClear
	}
	return KeyAllClear
}

// Snapshot is the serialisable view of a state.
type Snapshot struct {
	Display        string `json:"display" yaml:"display"`
	Phase          string `json:"phase" yaml:"phase"`
	ActiveOperator string `json:"active_operator,omitempty" yaml:"active_operator,omitempty"`
	InputActive    bool   `json:"input_active" yaml:"input_active"`
	ClearLabel     string `json:"clear_label" yaml:"clear_label"`
}

// Snap builds the Snapshot of s.
func Snap(s State) Snapshot {
	snap := Snapshot{
		Display:     Display(s),
		Phase:       s.PhaseName(),
		InputActive: IsInputActive(s),
		ClearLabel:  string(ClearLabel(s)),
	}
	if op, ok := ActiveOperator(s); ok {
		snap.ActiveOperator = op.String()
	}
	return snap
}
