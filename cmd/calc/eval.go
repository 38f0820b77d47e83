package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"keypad-calc/internal/calc"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Trace     bool
	MaxDigits int
}

// EvalStep is one traced key.
type EvalStep struct {
	Key      string `json:"key" yaml:"key"`
	Accepted bool   `json:"accepted" yaml:"accepted"`
	calc.Snapshot `yaml:",inline"`
}

// EvalResult is the structured output of eval.
type EvalResult struct {
	Steps    []EvalStep    `json:"steps,omitempty" yaml:"steps,omitempty"`
	Result   calc.Snapshot `json:"result" yaml:"result"`
	Rejected int           `json:"rejected" yaml:"rejected"`
}

func newEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval [keys...]",
		Short: "Feed keys to a fresh calculator and print the display",
		Long: `Feed a key sequence to a fresh calculator. Keys come from the arguments
or, when there are none, from stdin. Multi-digit numbers may be written as
one token: "12.5" is the keys 1 2 . 5.

Examples:
  calc eval 12 + 3 x 4 =
  echo "5 * 5 % =" | calc eval --trace
  calc eval --format yaml --trace "1 / 0 ="`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the state after every key")
	cmd.Flags().IntVar(&opts.MaxDigits, "max-digits", 0, "digits allowed per operand (default from config)")

	return cmd
}

func runEval(opts *EvalOptions, cmd *cobra.Command, args []string) error {
	line := strings.Join(args, " ")
	if len(args) == 0 {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read keys: %w", err)
		}
		line = string(raw)
	}

	actions, err := calc.ParseKeys(line)
	if err != nil {
		return err
	}

	maxDigits := opts.MaxDigits
	if maxDigits <= 0 {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return err
		}
		maxDigits = cfg.Engine.MaxDigits
	}
	limiter := calc.NewLimiter(maxDigits)

	state := calc.NewGuarded()
	var result EvalResult
	for _, a := range actions {
		next, ok := limiter.Step(state, a)
		if !ok {
			result.Rejected++
		}
		if opts.Trace {
			result.Steps = append(result.Steps, EvalStep{Key: a.String(), Accepted: ok, Snapshot: calc.Snap(next.State)})
		}
		state = next
	}
	result.Result = calc.Snap(state.State)

	if opts.Format != "text" {
		return encode(cmd.OutOrStdout(), opts.Format, result)
	}

	out := cmd.OutOrStdout()
	for _, s := range result.Steps {
		op := s.ActiveOperator
		if op == "" {
			op = "-"
		}
		mark := ""
		if !s.Accepted {
			mark = "\trejected"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s%s\n", s.Key, s.Display, s.Phase, op, s.ClearLabel, mark)
	}
	if !opts.Trace {
		fmt.Fprintln(out, result.Result.Display)
	}
	return nil
}
