package calc

import "strings"

// Entry is an element of the expression stack: an Operand or an Operator.
type Entry interface {
	isEntry()
}

// Operand is a number on the stack.
type Operand struct{ Value Number }

// Operator is a pending binary operator on the stack.
type Operator struct{ Op Op }

func (Operand) isEntry()  {}
func (Operator) isEntry() {}

// Stack holds entries in input order, alternating Operand and Operator from
// the bottom. Stacks are values: Push and Pop never modify the receiver's
// backing array.
type Stack []Entry

// Push returns a new stack with e on top.
func (s Stack) Push(e Entry) Stack {
	out := make(Stack, len(s), len(s)+1)
	copy(out, s)
	return append(out, e)
}

// PushOperand is Push(Operand{n}).
func (s Stack) PushOperand(n Number) Stack { return s.Push(Operand{Value: n}) }

// PushOperator is Push(Operator{op}).
func (s Stack) PushOperator(op Op) Stack { return s.Push(Operator{Op: op}) }

// Pop returns the stack without its top entry.
func (s Stack) Pop() Stack {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1:len(s)-1]
}

// Top returns the most recently pushed entry.
func (s Stack) Top() (Entry, bool) {
	if len(s) == 0 {
		return nil, false
	}
	return s[len(s)-1], true
}

// TopOperator returns the top entry if it is an operator.
func (s Stack) TopOperator() (Op, bool) {
	e, ok := s.Top()
	if !ok {
		return 0, false
	}
	o, ok := e.(Operator)
	return o.Op, ok
}

// SecondOperand returns the entry below the top if it is an operand.
func (s Stack) SecondOperand() (Number, bool) {
	if len(s) < 2 {
		return Number{}, false
	}
	o, ok := s[len(s)-2].(Operand)
	return o.Value, ok
}

func (s Stack) String() string {
	parts := make([]string, 0, len(s))
	for _, e := range s {
		switch e := e.(type) {
		case Operand:
			parts = append(parts, e.Value.String())
		case Operator:
			parts = append(parts, e.Op.String())
		}
	}
	return strings.Join(parts, " ")
}

// Eval reduces the stack with * and / binding tighter than + and -. An empty
// stack evaluates to zero, as does a term that starts on a dangling operator.
func Eval(s Stack) Number {
	c := &cursor{entries: s}
	return c.expr()
}

// cursor walks a stack from the bottom.
type cursor struct {
	entries Stack
	pos     int
}

func (c *cursor) next() (Entry, bool) {
	if c.pos >= len(c.entries) {
		return nil, false
	}
	e := c.entries[c.pos]
	c.pos++
	return e, true
}

func (c *cursor) back(n int) { c.pos -= n }

// term folds a run of * and / starting at the cursor.
func (c *cursor) term() Number {
	e, ok := c.next()
	if !ok {
		return Zero()
	}
	first, ok := e.(Operand)
	if !ok {
		c.back(1)
		return Zero()
	}

	acc := first.Value
	for {
		e, ok := c.next()
		if !ok {
			break
		}
		op, ok := e.(Operator)
		if !ok || !op.Op.IsTerm() {
			c.back(1)
			break
		}
		r, ok := c.next()
		if !ok {
			// trailing * or /: the operator has no right operand yet
			break
		}
		rhs, ok := r.(Operand)
		if !ok {
			c.back(2)
			break
		}
		acc = Apply(op.Op, acc, rhs.Value)
	}
	return acc
}

// expr folds terms joined by + and -.
func (c *cursor) expr() Number {
	acc := c.term()
	for {
		e, ok := c.next()
		if !ok {
			break
		}
		op, ok := e.(Operator)
		if !ok || op.Op.IsTerm() {
			c.back(1)
			break
		}
		acc = Apply(op.Op, acc, c.term())
	}
	return acc
}
