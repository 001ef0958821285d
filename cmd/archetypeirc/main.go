// Command archetypeirc is a thin development harness around the core
// pass pipeline. It loads driver options from a config file, decodes an
// already-typechecked model from JSON (the lexer/parser/typechecker
// themselves are out of scope, see spec.md §1), runs the pipeline, and
// prints the resulting diagnostics.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gridbugs/archetype-lang/core"
	"github.com/gridbugs/archetype-lang/pkg/config"
)

var (
	cfgEnv    string
	inPath    string
	outPath   string
	verbose   bool
	targetFA2 bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "archetypeirc",
		Short: "Run the Archetype IR lowering pipeline over a typechecked model",
	}
	root.PersistentFlags().StringVar(&cfgEnv, "env", "", "configuration environment to merge (e.g. dev, ci)")
	root.AddCommand(newLowerCmd())
	return root
}

func newLowerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lower",
		Short: "Lower a JSON-encoded model and print its diagnostics",
		RunE:  runLower,
	}
	cmd.Flags().StringVar(&inPath, "in", "", "path to the typechecked model JSON file (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the lowered model JSON file (default: stdout is untouched)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level pass tracing")
	cmd.Flags().BoolVar(&targetFA2, "fa2", false, "lower against the FA2 token-standard target")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func runLower(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgEnv)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.StandardLogger()
	if verbose || cfg.Logging.Level == "debug" {
		log.SetLevel(logrus.DebugLevel)
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var m core.Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}

	opts := optionsFromConfig(cfg)
	if targetFA2 {
		opts.Target = core.TargetFA2
	}

	lowered, runErr := core.Run(&m, opts, log)
	if runErr != nil {
		var stop *core.StopError
		if errors.As(runErr, &stop) {
			printDiagnostics(cmd, stop.Diagnostics)
			return fmt.Errorf("pipeline stopped in pass %q (code %d)", stop.Pass, stop.Code)
		}
		return runErr
	}

	if outPath != "" {
		enc, err := json.MarshalIndent(lowered, "", "  ")
		if err != nil {
			return fmt.Errorf("encode lowered model: %w", err)
		}
		if err := os.WriteFile(outPath, enc, 0o644); err != nil {
			return fmt.Errorf("write lowered model: %w", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), "ok: model lowered with no fatal diagnostics")
	return nil
}

func optionsFromConfig(cfg *config.Config) core.Options {
	return core.Options{
		Caller:           cfg.Driver.Caller,
		PropertyFocused:  cfg.Driver.PropertyFocused,
		MetadataURI:      cfg.Driver.MetadataURI,
		MetadataStorage:  cfg.Driver.MetadataStorage,
		WithMetadata:     cfg.Driver.WithMetadata,
		TestMode:         cfg.Driver.TestMode,
		EventWellAddress: cfg.Driver.EventWellAddress,
		VerifMode:        cfg.Driver.VerifMode,
		Target:           targetFromString(cfg.Driver.Target),
	}
}

func targetFromString(s string) core.BackendTarget {
	if s == "fa2" {
		return core.TargetFA2
	}
	return core.TargetGeneric
}

func printDiagnostics(cmd *cobra.Command, diags []core.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
}
