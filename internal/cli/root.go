// Package cli implements the logbook command-line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbookscan/internal/logbook"
	"github.com/JonMunkholm/logbookscan/internal/logging"
	"github.com/JonMunkholm/logbookscan/internal/rules"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions holds the persistent flags and what they resolve to.
type rootOptions struct {
	rulesPath string
	logLevel  string
	logFormat string

	logger *slog.Logger
	rules  *rules.Rules
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	if logbook.IsUserFacing(err) {
		_, _ = fmt.Fprintln(w, logbook.FormatUserError(err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "logbook",
		Short: "Reconstruct pilot logbook tables from OCR output",
		Long: "Turns table analysis output for scanned pilot logbook pages into a clean,\n" +
			"typed table: one header row followed by corrected data rows.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Flag > env > built-in rules.
			if !cmd.Flags().Changed("rules") {
				if v := os.Getenv("LOGBOOK_RULES_PATH"); v != "" {
					opts.rulesPath = v
				}
			}
			if !cmd.Flags().Changed("log-level") {
				if v := os.Getenv("LOG_LEVEL"); v != "" {
					opts.logLevel = v
				}
			}

			opts.logger = logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)

			r, err := rules.LoadOrDefault(opts.rulesPath)
			if err != nil {
				return err
			}
			opts.rules = r
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.rulesPath, "rules", "", "YAML rules file replacing the built-in rules")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(newReconstructCmd(opts))
	rootCmd.AddCommand(newRulesCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
