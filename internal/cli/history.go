package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayfarer-app/wayfarer/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		filter history.Filter
		show   string
		prune  bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past generations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.History == nil {
				return fmt.Errorf("history is disabled in %s", app.ConfigPath)
			}
			ctx := cmd.Context()

			if prune {
				before := time.Now().AddDate(0, 0, -app.Config.History.KeepDays)
				n, err := app.History.Prune(ctx, before)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d records older than %s\n", n, before.Format("2006-01-02"))
				return nil
			}

			if show != "" {
				rec, err := app.History.Get(ctx, show)
				if err != nil {
					return fmt.Errorf("get %s: %w", show, err)
				}
				return printJSON(cmd.OutOrStdout(), rec)
			}

			recs, err := app.History.List(ctx, filter)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("No generations recorded."))
				return err
			}

			t := newTable("ID", "WHEN", "RECIPE", "STATUS", "ATTEMPTS", "TOOK")
			for _, r := range recs {
				status := statusStyle(r.Status).Render(r.Status)
				if r.ErrorCode != "" {
					status += " " + r.ErrorCode
				}
				t.Row(shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Recipe, status,
					fmt.Sprintf("%d", r.Attempts), (time.Duration(r.DurationMs) * time.Millisecond).String())
			}
			return render(cmd.OutOrStdout(), t)
		},
	}
	cmd.Flags().StringVar(&filter.Recipe, "recipe", "", "only this recipe")
	cmd.Flags().StringVar(&filter.Status, "status", "", "ok or failed")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "maximum records")
	cmd.Flags().StringVar(&show, "show", "", "print one record by id")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete records older than history.keep_days")
	return cmd
}

// shortID abbreviates generated IDs; shorter IDs are kept whole.
func shortID(id string) string {
	return id[:min(len(id), 8)]
}
