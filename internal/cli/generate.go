package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayfarer-app/wayfarer/internal/generate"
	"github.com/wayfarer-app/wayfarer/internal/ratelimit"
	"github.com/wayfarer-app/wayfarer/pkg/journal"
)

// runRecipe builds the app, runs fn under the rate limiter and prints
// the record as JSON.
func runRecipe[T any](cmd *cobra.Command, fn func(ctx context.Context, p *generate.Pipeline) (T, error)) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	out, err := ratelimit.Guard(cmd.Context(), app.Limiter, func(ctx context.Context) (T, error) {
		return fn(ctx, app.Pipeline)
	})
	if err != nil {
		return app.fail(cmd.ErrOrStderr(), err)
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func newItineraryCmd() *cobra.Command {
	var params generate.ItineraryParams
	cmd := &cobra.Command{
		Use:   "itinerary <destination>",
		Short: "Plan a day-by-day itinerary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Destination = strings.Join(args, " ")
			return runRecipe(cmd, func(ctx context.Context, p *generate.Pipeline) (*journal.Itinerary, error) {
				return p.Itinerary(ctx, params)
			})
		},
	}
	cmd.Flags().IntVarP(&params.Days, "days", "d", 3, "trip length in days (1-30)")
	cmd.Flags().StringVar(&params.TripType, "type", "", "trip type, e.g. city break, road trip")
	cmd.Flags().StringVar(&params.TravelStyle, "style", "", "travel style, e.g. slow, budget, luxury")
	return cmd
}

func newPackingCmd() *cobra.Command {
	var params generate.PackingParams
	cmd := &cobra.Command{
		Use:   "packing <destination>",
		Short: "Build a packing list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Destination = strings.Join(args, " ")
			return runRecipe(cmd, func(ctx context.Context, p *generate.Pipeline) (*journal.PackingList, error) {
				return p.PackingList(ctx, params)
			})
		},
	}
	cmd.Flags().IntVarP(&params.Days, "days", "d", 3, "trip length in days")
	cmd.Flags().StringVar(&params.TripType, "type", "", "trip type")
	cmd.Flags().StringVar(&params.Season, "season", "", "season of travel")
	return cmd
}

func newBriefingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "briefing <destination>",
		Short: "Write a destination briefing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := strings.Join(args, " ")
			return runRecipe(cmd, func(ctx context.Context, p *generate.Pipeline) (*journal.Briefing, error) {
				return p.Briefing(ctx, dest)
			})
		},
	}
}

func newNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note [text | -]",
		Short: "Structure a free-text travel note",
		Long:  "Structure a free-text travel note. With no arguments or \"-\" the note is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if text == "" || text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read note: %w", err)
				}
				text = string(b)
			}
			return runRecipe(cmd, func(ctx context.Context, p *generate.Pipeline) (*journal.StructuredNote, error) {
				return p.StructureNote(ctx, text)
			})
		},
	}
}

func newJournalCmd() *cobra.Command {
	var (
		date  string
		day   journal.DayStats
		notes []string
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Write the journal entry of one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := time.ParseInLocation("2006-01-02", date, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", date, err)
			}
			day.Date = d

			for _, n := range notes {
				if strings.HasPrefix(n, "@") {
					b, err := os.ReadFile(strings.TrimPrefix(n, "@"))
					if err != nil {
						return fmt.Errorf("read note: %w", err)
					}
					n = string(b)
				}
				day.NoteContents = append(day.NoteContents, n)
			}

			return runRecipe(cmd, func(ctx context.Context, p *generate.Pipeline) (*journal.JournalEntry, error) {
				return p.JournalEntry(ctx, day)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format("2006-01-02"), "day to write about (YYYY-MM-DD)")
	cmd.Flags().IntVar(&day.PhotoCount, "photos", 0, "photos taken")
	cmd.Flags().Float64Var(&day.TotalDistanceMeters, "distance", 0, "distance covered in meters")
	cmd.Flags().StringArrayVar(&day.PlacesVisited, "place", nil, "place visited (repeatable)")
	cmd.Flags().StringArrayVar(&notes, "note", nil, "note text or @file (repeatable)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		trip    generate.SummaryParams
		variant string
	)
	cmd := &cobra.Command{
		Use:   "summary <destination>",
		Short: "Write the recap of a whole trip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trip.Destination = strings.Join(args, " ")
			trip.Variant = journal.SummaryVariant(variant)
			return runRecipe(cmd, func(ctx context.Context, p *generate.Pipeline) (*journal.TripSummary, error) {
				return p.TripSummary(ctx, trip)
			})
		},
	}
	cmd.Flags().IntVarP(&trip.DurationDays, "days", "d", 1, "trip length in days")
	cmd.Flags().IntVar(&trip.PhotoCount, "photos", 0, "photos taken")
	cmd.Flags().IntVar(&trip.NoteCount, "notes", 0, "notes written")
	cmd.Flags().Float64Var(&trip.TotalDistanceMeters, "distance", 0, "distance covered in meters")
	cmd.Flags().StringArrayVar(&trip.Highlights, "highlight", nil, "traveler highlight (repeatable)")
	cmd.Flags().StringVar(&variant, "variant", string(journal.VariantNarrative), "concise, narrative or social")
	return cmd
}
