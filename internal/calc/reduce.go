package calc

// Reduce returns the state that follows s after action a. It is pure: the
// same state and action always produce the same result, and s is never
// modified. Every phase/action pair is defined; unknown actions leave the
// state unchanged.
func Reduce(s State, a Action) State {
	if d, ok := a.IsDigit(); ok {
		return pressDigit(s, d)
	}
	if op, ok := a.Key().binaryOp(); ok {
		return pressOperator(s, op)
	}
	switch a.Key() {
	case KeyAllClear:
		return NewState()
	case KeyClear:
		return pressClear(s)
	case KeySign:
		return pressSign(s)
	case KeyPercent:
		return pressPercent(s)
	case KeyPoint:
		return pressPoint(s)
	case KeyEquals:
		return pressEquals(s)
	}
	return s
}

// Run folds actions over s.
func Run(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func pressDigit(s State, d int) State {
	if p, ok := s.Phase().(NumberEntered); ok && p.Typing {
		if p.Cursor > 0 {
			p.Current = p.Current.appendDigit(d, p.Cursor)
			p.Cursor++
		} else {
			p.Current = p.Current.appendDigit(d, 0)
		}
		p.Cleared = false
		return s.with(p)
	}
	// Initial, OperatorEntered, Evaluated and a NumberEntered that is only
	// showing a value all start a fresh operand.
	return s.with(NumberEntered{Current: DigitNumber(d), Typing: true})
}

func pressPoint(s State) State {
	if p, ok := s.Phase().(NumberEntered); ok && p.Typing {
		if p.Cursor == 0 {
			p.Cursor = 1
		}
		p.Cleared = false
		return s.with(p)
	}
	return s.with(NumberEntered{Current: Zero(), Cursor: 1, Typing: true})
}

func pressSign(s State) State {
	switch p := s.Phase().(type) {
	case Initial:
		return s.with(NumberEntered{Current: NegativeZero(), Typing: true})
	case OperatorEntered:
		return s.with(NumberEntered{Current: NegativeZero(), Typing: true, Cleared: p.Cleared})
	case NumberEntered:
		p.Current = p.Current.toggleSign()
		p.Typing = true
		return s.with(p)
	case Evaluated:
		p.Current = p.Current.toggleSign()
		return s.with(p)
	}
	return s
}

func pressOperator(s State, op Op) State {
	if p, ok := s.Phase().(OperatorEntered); ok {
		// Replace the operator that is still waiting for its right operand.
		popped := s.stack.Pop()
		if op.IsTerm() {
			p.Current, _ = s.stack.SecondOperand()
		} else {
			p.Current = Eval(popped)
		}
		s.stack = popped.PushOperator(op)
		return s.with(p)
	}

	current := s.current()
	stack := s.stack.PushOperand(current)
	if !op.IsTerm() {
		current = Eval(stack)
	}
	s.stack = stack.PushOperator(op)
	s.pending = nil
	return s.with(OperatorEntered{Current: current, Cleared: s.cleared()})
}

func pressEquals(s State) State {
	var result Number
	switch p := s.Phase().(type) {
	case Initial:
		return s
	case Evaluated:
		result = p.Current
		if r, ok := s.Pending(); ok {
			result = r.apply(p.Current)
		}
	case NumberEntered:
		if op, ok := s.stack.TopOperator(); ok {
			s.pending = &Repeat{Op: op, Operand: p.Current}
			result = Eval(s.stack.PushOperand(p.Current))
		} else if r, ok := s.Pending(); ok {
			// a fresh operand typed after = keeps the repeat armed
			result = r.apply(p.Current)
		} else {
			result = p.Current
		}
	case OperatorEntered:
		op, _ := s.stack.TopOperator()
		left, _ := s.stack.SecondOperand()
		s.pending = &Repeat{Op: op, Operand: left}
		result = Eval(s.stack.PushOperand(p.Current))
	}
	s.stack = nil
	return s.with(Evaluated{Current: result, Cleared: s.cleared()})
}

func pressClear(s State) State {
	switch p := s.Phase().(type) {
	case NumberEntered:
		return s.with(NumberEntered{Current: Zero(), Cleared: true})
	case OperatorEntered:
		p.Current, p.Cleared = Zero(), true
		return s.with(p)
	case Evaluated:
		p.Current, p.Cleared = Zero(), true
		return s.with(p)
	}
	return s
}

func pressPercent(s State) State {
	switch p := s.Phase().(type) {
	case Evaluated:
		p.Current = p.Current.percent()
		return s.with(p)
	case OperatorEntered:
		p.Current = percentOf(s.stack, p.Current, true)
		return s.with(p)
	case NumberEntered:
		p.Current = percentOf(s.stack, p.Current, false)
		p.Typing = false
		return s.with(p)
	}
	return s
}

// percentOf applies % to current. Under a pending + or -, the percentage is
// taken of a base: the last operand on the stack while the operator still
// awaits its right operand, otherwise the total left of the operator.
func percentOf(stack Stack, current Number, awaitingOperand bool) Number {
	op, ok := stack.TopOperator()
	if !ok || op.IsTerm() {
		return current.percent()
	}
	var base Number
	if awaitingOperand {
		base, _ = stack.SecondOperand()
	} else {
		base = Eval(stack.Pop())
	}
	return Apply(Mul, base, current.percent())
}
