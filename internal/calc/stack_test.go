package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stackOf(items ...any) Stack {
	var s Stack
	for _, it := range items {
		switch v := it.(type) {
		case int:
			s = s.PushOperand(DigitNumber(v))
		case Op:
			s = s.PushOperator(v)
		}
	}
	return s
}

func TestEval(t *testing.T) {
	tests := []struct {
		name  string
		stack Stack
		want  string
	}{
		{"empty", nil, "0"},
		{"single operand", stackOf(7), "7"},
		{"sum", stackOf(1, Add, 2, Sub, 4), "-1"},
		{"term first", stackOf(2, Mul, 4, Add, 5), "13"},
		{"term last", stackOf(2, Add, 4, Mul, 5), "22"},
		{"two terms", stackOf(1, Add, 2, Mul, 4, Add, 3, Mul, 5), "24"},
		{"left to right division", stackOf(8, Div, 2, Div, 2), "2"},
		{"trailing additive operator", stackOf(2, Add), "2"},
		{"trailing term operator", stackOf(2, Add, 3, Mul), "5"},
		{"dangling operator", stackOf(Add), "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Eval(tc.stack).String())
		})
	}
}

func TestStackIsPersistent(t *testing.T) {
	base := stackOf(1, Add)
	a := base.PushOperand(DigitNumber(2))
	b := base.PushOperand(DigitNumber(3))

	assert.Equal(t, "1 + 2", a.String())
	assert.Equal(t, "1 + 3", b.String())
	assert.Equal(t, "1 +", base.String())

	c := a.Pop().Pop().PushOperator(Mul)
	assert.Equal(t, "1 + 2", a.String())
	assert.Equal(t, "1 *", c.String())
}

func TestStackAccessors(t *testing.T) {
	s := stackOf(4, Div)

	op, ok := s.TopOperator()
	assert.True(t, ok)
	assert.Equal(t, Div, op)

	n, ok := s.SecondOperand()
	assert.True(t, ok)
	assert.Equal(t, "4", n.String())

	_, ok = s.Pop().TopOperator()
	assert.False(t, ok)

	_, ok = Stack(nil).Top()
	assert.False(t, ok)
	assert.Empty(t, Stack(nil).Pop())
}
