package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"keypad-calc/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	Format     string // "text" | "json" | "yaml"
}

var validFormats = []string{"text", "json", "yaml"}

func newRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Keypad calculator engine",
		Long:  "A four-function keypad calculator: an HTTP session service plus offline evaluation and journal replay.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", defaultEnvFile, "dotenv file applied before the config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newEvalCommand(opts))
	cmd.AddCommand(newReplayCommand(opts))

	return cmd
}

// loadConfig applies the dotenv file, then the config file and CALC_* overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(opts.ConfigPath)
}

// encode writes v as JSON or YAML. Text output is left to the caller.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", format)
}
