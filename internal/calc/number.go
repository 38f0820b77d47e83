package calc

import (
	"github.com/cockroachdb/apd/v3"
)

// Precision is the number of significant digits kept by arithmetic results.
const Precision = 34

// arith performs all engine arithmetic. Traps are disabled so that division by
// zero yields Infinity or NaN instead of an error.
var arith = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(Precision)
	c.Traps = 0
	return c
}()

var (
	decZero    = apd.New(0, 0)
	decTen     = apd.New(10, 0)
	decHundred = apd.New(100, 0)
)

// Number is a sign/magnitude decimal. The magnitude is never negative and is
// never mutated once built, so a Number may be shared freely between states.
type Number struct {
	neg bool
	mag *apd.Decimal
}

// Zero returns positive zero.
func Zero() Number { return Number{} }

// NegativeZero returns the value shown after pressing +/- before any digit.
func NegativeZero() Number { return Number{neg: true} }

// DigitNumber returns the single-digit number n.
func DigitNumber(n int) Number {
	return Number{mag: apd.New(int64(n), 0)}
}

// FromDecimal wraps a signed decimal.
func FromDecimal(d *apd.Decimal) Number {
	if d == nil {
		return Zero()
	}
	return Number{
		neg: d.Sign() < 0,
		mag: new(apd.Decimal).Abs(d),
	}
}

// ParseNumber parses a plain decimal string such as "-12.5".
func ParseNumber(s string) (Number, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Number{}, err
	}
	return FromDecimal(d), nil
}

func (n Number) magnitude() *apd.Decimal {
	if n.mag == nil {
		return decZero
	}
	return n.mag
}

// Negative reports the sign flag, which is also set for -0.
func (n Number) Negative() bool { return n.neg }

// Decimal returns the signed value as a fresh decimal.
func (n Number) Decimal() *apd.Decimal {
	d := new(apd.Decimal).Set(n.magnitude())
	if d.Form != apd.NaN {
		d.Negative = n.neg
	}
	return d
}

// Float64 returns the closest float64. Infinity and NaN map to their float
// counterparts.
func (n Number) Float64() float64 {
	f, err := n.Decimal().Float64()
	if err != nil {
		return 0
	}
	return f
}

func (n Number) String() string { return Format(n.Decimal()) }

// Equal compares the signed values. -0 equals 0.
func (n Number) Equal(o Number) bool {
	return n.Decimal().Cmp(o.Decimal()) == 0
}

func (n Number) toggleSign() Number {
	return Number{neg: !n.neg, mag: n.mag}
}

// percent divides the magnitude by 100, keeping the sign.
func (n Number) percent() Number {
	return Number{neg: n.neg, mag: compute(arith.Quo, n.magnitude(), decHundred)}
}

// appendDigit adds digit d to the magnitude. With a zero cursor the digit is
// appended to the integer part; otherwise it becomes the cursor-th fractional
// digit.
func (n Number) appendDigit(d, cursor int) Number {
	if cursor > 0 {
		frac := apd.New(int64(d), -int32(cursor))
		return Number{neg: n.neg, mag: compute(arith.Add, n.magnitude(), frac)}
	}
	shifted := compute(arith.Mul, n.magnitude(), decTen)
	return Number{neg: n.neg, mag: compute(arith.Add, shifted, apd.New(int64(d), 0))}
}

// Apply evaluates l op r on the signed values. Division by zero does not
// fail: x/0 is ±Infinity and 0/0 is NaN.
func Apply(op Op, l, r Number) Number {
	x, y := l.Decimal(), r.Decimal()
	switch op {
	case Add:
		return FromDecimal(compute(arith.Add, x, y))
	case Sub:
		return FromDecimal(compute(arith.Sub, x, y))
	case Mul:
		return FromDecimal(compute(arith.Mul, x, y))
	case Div:
		if y.IsZero() {
			return divideByZero(x, y)
		}
		return FromDecimal(compute(arith.Quo, x, y))
	}
	return l
}

// divideByZero returns ±Infinity for a non-zero dividend and NaN otherwise.
// The sign of the infinity follows the signs of both operands, so 1/-0 is
// -Infinity.
func divideByZero(x, y *apd.Decimal) Number {
	if x.IsZero() || x.Form == apd.NaN {
		return Number{mag: &apd.Decimal{Form: apd.NaN}}
	}
	return Number{neg: x.Negative != y.Negative, mag: &apd.Decimal{Form: apd.Infinite}}
}

func compute(f func(d, x, y *apd.Decimal) (apd.Condition, error), x, y *apd.Decimal) *apd.Decimal {
	d := new(apd.Decimal)
	if _, err := f(d, x, y); err != nil {
		d.Form = apd.NaN
	}
	return d
}

// Format renders d as a plain decimal without trailing zeros, e.g. "0.06",
// "80" or "-5". Non-finite values render as "Infinity", "-Infinity" or "NaN".
func Format(d *apd.Decimal) string {
	if d.Form != apd.Finite {
		return d.String()
	}
	r, _ := new(apd.Decimal).Reduce(d)
	// Reduce drops the sign of zero
	r.Negative = d.Negative
	return r.Text('f')
}
