package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorPrimary = lipgloss.Color("#7C71F9")
	colorSuccess = lipgloss.Color("#34D399")
	colorError   = lipgloss.Color("#F87171")
	colorDim     = lipgloss.Color("#6B7280")
)

var (
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError   = lipgloss.NewStyle().Foreground(colorError)

	styleLabel       = styleDim
	styleTableHeader = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleCell        = lipgloss.NewStyle().PaddingRight(2)
)

// newTable returns a borderless table with an underlined header row.
func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			return styleCell
		})
}

// kvTable renders key/value rows with dimmed keys and no borders.
func kvTable() *table.Table {
	return table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return styleLabel.PaddingRight(2)
			}
			return lipgloss.NewStyle()
		})
}

func statusStyle(status string) lipgloss.Style {
	if status == "ok" {
		return styleSuccess
	}
	return styleError
}

func render(w io.Writer, t *table.Table) error {
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
