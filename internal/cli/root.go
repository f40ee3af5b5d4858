package cli

import (
	stderrors "errors"

	"github.com/spf13/cobra"
)

// ErrReported is returned once a failure has already been shown to the user.
var ErrReported = stderrors.New("reported")

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wayfarer",
		Short:         "On-device travel planning and journaling",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with WAYFARER_* overrides")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newItineraryCmd())
	rootCmd.AddCommand(newPackingCmd())
	rootCmd.AddCommand(newBriefingCmd())
	rootCmd.AddCommand(newNoteCmd())
	rootCmd.AddCommand(newJournalCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}
