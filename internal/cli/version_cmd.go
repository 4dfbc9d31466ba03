package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/logbookscan/internal/ocr"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logbook version %s (commit: %s, ocr: %t)\n",
				version, commit, ocr.Available())
			return nil
		},
	}
}
