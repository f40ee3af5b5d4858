package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayfarer-app/wayfarer/internal/ratelimit"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show model availability and local state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			state := app.Pipeline.CheckAvailability(ctx)

			t := kvTable()
			t.Row("config", app.ConfigPath)
			t.Row("model", fmt.Sprintf("%s (%s)", app.Resource.Name(), app.Config.Model.BaseURL))
			t.Row("availability", state.String())
			if !state.Available {
				uf := app.Pipeline.PresentError(state.Err())
				t.Row("", styleDim.Render(uf.Message))
			}

			rl := app.Config.RateLimit
			switch l := app.Limiter.(type) {
			case nil:
				t.Row("rate limit", "disabled")
			case *ratelimit.Window:
				t.Row("rate limit", fmt.Sprintf("%d/%d per %s (memory)", l.Count(), rl.Limit, rl.Window))
			case *ratelimit.RedisWindow:
				n, err := l.Count(ctx)
				if err != nil {
					t.Row("rate limit", styleError.Render(fmt.Sprintf("redis error: %v", err)))
				} else {
					t.Row("rate limit", fmt.Sprintf("%d/%d per %s (redis %s)", n, rl.Limit, rl.Window, app.Config.Redis.Addr))
				}
			}

			if app.History != nil {
				counts, err := app.History.CountByStatus(ctx)
				if err != nil {
					return err
				}
				t.Row("history", fmt.Sprintf("%d ok, %d failed (%s)", counts["ok"], counts["failed"], app.Config.History.Path))
			} else {
				t.Row("history", "disabled")
			}
			return render(cmd.OutOrStdout(), t)
		},
	}
}
