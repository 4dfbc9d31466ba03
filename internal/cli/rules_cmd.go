package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/logbookscan/internal/rules"
)

func newRulesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active rules as YAML",
		Long: "Prints the rules in effect (the built-in rules, or the file given with --rules)\n" +
			"in the rules file format. The output is a starting point for a custom rules file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(opts.rules); err != nil {
				return fmt.Errorf("encode rules: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := rules.Load(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"%s: ok (%d fields, %d aliases, %d numeric and %d airport substitutions)\n",
				args[0], len(r.Fields()), len(r.Aliases()),
				len(r.NumericSubstitutions()), len(r.AirportSubstitutions()))
			return nil
		},
	})

	return cmd
}
