package ui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

// ConfigureColor sets the lipgloss color profile. noColor or NO_COLOR
// renders without escape codes.
func ConfigureColor(noColor bool) {
	if noColor || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

// Browse runs the interactive zone browser until the user quits.
func Browse(ctx context.Context, source Source, services []string, interval time.Duration) error {
	p := tea.NewProgram(New(ctx, source, services, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("zone browser: %w", err)
	}
	return nil
}

func staticTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderColumn(false).
		BorderRow(false).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}

// ZonesTable renders zones as a plain table.
func ZonesTable(zones []zone.Zone) string {
	t := staticTable("ID", "NAME", "STATUS", "PATH", "BRAND", "IP")
	for _, z := range zones {
		t.Row(strconv.Itoa(z.ID), z.Name, string(z.Status), z.Path, z.Brand, z.IPType)
	}
	return t.Render()
}

// AttributesTable renders zone attributes as a plain table.
func AttributesTable(attrs []zonecfg.Attribute) string {
	t := staticTable("NAME", "TYPE", "VALUE")
	for _, a := range attrs {
		t.Row(a.Name, string(a.Type), a.Value)
	}
	return t.Render()
}

// ServicesTable renders service states as a plain table. Failed queries
// show their error kind in the STATE column.
func ServicesTable(states []query.ServiceStatus) string {
	t := staticTable("FMRI", "STATE")
	for _, st := range states {
		state := string(st.State)
		if st.Err != nil {
			state = zone.KindOf(st.Err)
		}
		t.Row(st.FMRI, state)
	}
	return t.Render()
}
