package calc

import (
	"fmt"
	"strings"
)

// Op is one of the four binary operators.
type Op byte

const (
	Add Op = '+'
	Sub Op = '-'
	Mul Op = '*'
	Div Op = '/'
)

func (o Op) String() string { return string(rune(o)) }

// IsTerm reports whether o binds at the term level (* and /).
func (o Op) IsTerm() bool { return o == Mul || o == Div }

// Key is a non-digit calculator key.
type Key string

const (
	KeyAdd      Key = "+"
	KeySub      Key = "-"
	KeyMul      Key = "*"
	KeyDiv      Key = "/"
	KeyPercent  Key = "%"
	KeyPoint    Key = "."
	KeySign     Key = "+/-"
	KeyEquals   Key = "="
	KeyClear    Key = "C"
	KeyAllClear Key = "AC"
)

// binaryOp maps an operator key to its Op.
func (k Key) binaryOp() (Op, bool) {
	switch k {
	case KeyAdd:
		return Add, true
	case KeySub:
		return Sub, true
	case KeyMul:
		return Mul, true
	case KeyDiv:
		return Div, true
	}
	return 0, false
}

// Action is a single keypress: either a digit or a Key.
type Action struct {
	digit int8
	key   Key
}

// Digit returns the action for digit n. Values outside 0-9 produce an action
// that Reduce ignores.
func Digit(n int) Action {
	if n < 0 || n > 9 {
		return Action{digit: -1}
	}
	return Action{digit: int8(n)}
}

// Press returns the action for key k.
func Press(k Key) Action { return Action{digit: -1, key: k} }

// IsDigit reports whether a is a digit action, returning the digit.
func (a Action) IsDigit() (int, bool) {
	if a.key != "" || a.digit < 0 {
		return 0, false
	}
	return int(a.digit), true
}

// Key returns the key of a non-digit action, or "" for digits.
func (a Action) Key() Key { return a.key }

func (a Action) String() string {
	if d, ok := a.IsDigit(); ok {
		return string(rune('0' + d))
	}
	if a.key == "" {
		return "?"
	}
	return string(a.key)
}

var keyAliases = map[string]Key{
	"+":   KeyAdd,
	"-":   KeySub,
	"−":   KeySub,
	"*":   KeyMul,
	"x":   KeyMul,
	"×":   KeyMul,
	"/":   KeyDiv,
	"÷":   KeyDiv,
	"%":   KeyPercent,
	".":   KeyPoint,
	",":   KeyPoint,
	"+/-": KeySign,
	"±":   KeySign,
	"neg": KeySign,
	"=":   KeyEquals,
	"C":   KeyClear,
	"CE":  KeyClear,
	"AC":  KeyAllClear,
}

// ParseAction parses a single key token such as "7", "+", "+/-" or "AC".
func ParseAction(token string) (Action, error) {
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		return Digit(int(token[0] - '0')), nil
	}
	if k, ok := keyAliases[token]; ok {
		return Press(k), nil
	}
	if k, ok := keyAliases[strings.ToUpper(token)]; ok {
		return Press(k), nil
	}
	return Action{}, fmt.Errorf("unknown key %q", token)
}

// ParseKeys splits a whitespace separated key line into actions. Numeric
// tokens expand into one action per character, so "12.5" is the four keys
// 1 2 . 5.
func ParseKeys(line string) ([]Action, error) {
	var actions []Action
	for _, field := range strings.Fields(line) {
		parsed, err := parseToken(field)
		if err != nil {
			return nil, err
		}
		actions = append(actions, parsed...)
	}
	return actions, nil
}

// ParseTokens is ParseKeys over already split tokens.
func ParseTokens(tokens []string) ([]Action, error) {
	actions := make([]Action, 0, len(tokens))
	for _, tok := range tokens {
		parsed, err := parseToken(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		actions = append(actions, parsed...)
	}
	return actions, nil
}

func parseToken(tok string) ([]Action, error) {
	if isNumeral(tok) {
		out := make([]Action, 0, len(tok))
		for _, r := range tok {
			if r == '.' {
				out = append(out, Press(KeyPoint))
				continue
			}
			out = append(out, Digit(int(r-'0')))
		}
		return out, nil
	}
	a, err := ParseAction(tok)
	if err != nil {
		return nil, err
	}
	return []Action{a}, nil
}

func isNumeral(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	for _, r := range tok {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
