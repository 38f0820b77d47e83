package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"keypad-calc/internal/calc"
	"keypad-calc/internal/session"
	"keypad-calc/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional, specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string        `json:"session_id" yaml:"session_id"`
	Snapshot      calc.Snapshot `json:"snapshot" yaml:"snapshot"`
	Digits        int           `json:"digits" yaml:"digits"`
	Deterministic bool          `json:"deterministic" yaml:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions" yaml:"sessions"`
	AllDeterministic bool                  `json:"all_deterministic" yaml:"all_deterministic"`
}

func newReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild stored sessions from their journal and verify determinism",
		Long: `Rebuild every stored session (or one, with --session) from its keystroke
journal twice and check that both runs end in the same state.

Examples:
  calc replay --db ./calc.db
  calc replay --db ./calc.db --session 0b6f... --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite journal (default from config)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay a specific session only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	path := opts.Database
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return err
		}
		path = cfg.Store.Path
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions := session.NewManager(st)

	ids := []string{opts.SessionID}
	if opts.SessionID == "" {
		if ids, err = sessions.List(ctx); err != nil {
			return err
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(ids)),
		AllDeterministic: true,
	}
	for _, id := range ids {
		r, err := replayAndVerify(ctx, sessions, id)
		if err != nil {
			return fmt.Errorf("replay %s: %w", id, err)
		}
		result.Sessions = append(result.Sessions, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format != "text" {
		if err := encode(cmd.OutOrStdout(), opts.Format, result); err != nil {
			return err
		}
	} else {
		writeReplayText(cmd, result)
	}

	if !result.AllDeterministic {
		return fmt.Errorf("replay diverged")
	}
	return nil
}

// replayAndVerify rebuilds a session twice and compares the outcomes.
func replayAndVerify(ctx context.Context, sessions *session.Manager, id string) (ReplaySessionResult, error) {
	first, err := sessions.Replay(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}
	second, err := sessions.Replay(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	return ReplaySessionResult{
		SessionID:     id,
		Snapshot:      calc.Snap(first.State),
		Digits:        first.Digits,
		Deterministic: first.String() == second.String() && first.Digits == second.Digits,
	}, nil
}

func writeReplayText(cmd *cobra.Command, result ReplayResult) {
	out := cmd.OutOrStdout()
	if len(result.Sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return
	}
	for _, s := range result.Sessions {
		status := "deterministic"
		if !s.Deterministic {
			status = "DIVERGED"
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", s.SessionID, s.Snapshot.Display, s.Snapshot.Phase, status)
	}
}
