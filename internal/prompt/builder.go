// Package prompt builds the system instruction and per-recipe prompts.
package prompt

import (
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeFull    Mode = "full"
	ModeMinimal Mode = "minimal"
)

type Builder struct {
	Mode     Mode
	Language string // output language name, e.g. "Italian"
	Timezone string

	now func() time.Time
}

type SystemContext struct {
	Persona string
	Output  string
	Style   string
	Safety  string
}

func NewBuilder(mode Mode, language string) *Builder {
	return &Builder{
		Mode:     mode,
		Language: language,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for the current date.
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// BuildSystemPrompt assembles the instruction a session is created with.
// The current date is only included in full mode, at day granularity, so
// calls on the same day give the same instruction.
func (b *Builder) BuildSystemPrompt(ctx SystemContext) string {
	var sections []string
	sections = append(sections, "Identity:\n"+nonEmpty(ctx.Persona,
		"You are Wayfarer, a travel companion that plans trips and writes travel journals. Be warm, concrete and practical."))
	sections = append(sections, "Output:\n"+nonEmpty(ctx.Output,
		"Answer only with a JSON object matching the requested schema. Never add commentary outside the JSON."))
	sections = append(sections, "Language:\n"+b.languageLine())

	if b.Mode == ModeFull {
		sections = append(sections, "Style:\n"+nonEmpty(ctx.Style,
			"Prefer specific places, dishes and times over generic advice. Keep each text field short."))
		sections = append(sections, "Safety:\n"+nonEmpty(ctx.Safety,
			"Do not invent visa or health requirements. When unsure, tell the traveler to check official sources."))
		sections = append(sections, "Current Date:\n"+b.dateLine())
	}

	return strings.Join(sections, "\n\n")
}

func (b *Builder) languageLine() string {
	if strings.TrimSpace(b.Language) == "" {
		return "Write every text field in the language the traveler uses."
	}
	return fmt.Sprintf("Write every text field in %s.", b.Language)
}

func (b *Builder) dateLine() string {
	now := b.now()
	if b.Timezone != "" {
		if loc, err := time.LoadLocation(b.Timezone); err == nil {
			now = now.In(loc)
		}
	}
	return now.Format("2006-01-02")
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
