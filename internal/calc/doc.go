// Package calc implements the keypad calculator engine: a pure reducer from
// (State, Action) to State over exact decimal numbers, with term/expression
// precedence, chained equals, percent, sign toggle and decimal entry.
//
// The UI reads the engine through CurrentValue, ActiveOperator and
// IsInputActive, and writes to it by folding actions with Reduce (or
// Limiter.Step when operand length is capped).
package calc
