package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/smf"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

type state int

const (
	stateLoading state = iota
	stateList
	stateResult
)

// DefaultRefreshInterval is how often the browser reloads the zone table.
const DefaultRefreshInterval = 5 * time.Second

type tickMsg time.Time

// Source is the part of query.Client the browser reads from.
type Source interface {
	Refresh(ctx context.Context) error
	CurrentZone() zone.Zone
	ListZones() []zone.Zone
	ZoneAttributes(ctx context.Context, zoneName string) (<-chan query.Result[[]zonecfg.Attribute], error)
	ZoneServiceStates(ctx context.Context, zoneName string, fmris []string) ([]query.ServiceStatus, error)
}

// detail is what the panel shows for one zone.
type detail struct {
	attrs    []zonecfg.Attribute
	attrErr  error
	services []query.ServiceStatus
	svcErr   error
}

// Model is the Bubble Tea model for the zone browser.
type Model struct {
	ctx      context.Context
	source   Source
	services []string
	interval time.Duration

	state        state
	zones        []zone.Zone
	current      string
	cursor       int
	selectedName string // used to restore the cursor after refresh
	details      map[string]detail
	message      string
	isError      bool
	width        int
	height       int
	quitting     bool
	search       string
}

// New creates a browser over source. services are the FMRIs shown in the
// detail panel of every zone.
func New(ctx context.Context, source Source, services []string, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return Model{
		ctx:      ctx,
		source:   source,
		services: services,
		interval: interval,
		state:    stateLoading,
		details:  make(map[string]detail),
	}
}

// visibleZones returns the zones whose name contains m.search.
func (m Model) visibleZones() []zone.Zone {
	if m.search == "" {
		return m.zones
	}
	var out []zone.Zone
	for _, z := range m.zones {
		if strings.Contains(z.Name, m.search) || strconv.Itoa(z.ID) == m.search {
			out = append(out, z)
		}
	}
	return out
}

func (m Model) selected() (zone.Zone, bool) {
	visible := m.visibleZones()
	if m.cursor < len(visible) {
		return visible[m.cursor], true
	}
	return zone.Zone{}, false
}

// Messages

type loadedMsg struct {
	zones   []zone.Zone
	current string
	err     error
}

type detailMsg struct {
	zone string
	detail
}

// Commands

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadZones(ctx context.Context, source Source) tea.Cmd {
	return func() tea.Msg {
		if err := source.Refresh(ctx); err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{zones: source.ListZones(), current: source.CurrentZone().Name}
	}
}

func loadDetail(ctx context.Context, source Source, zoneName string, services []string) tea.Cmd {
	return func() tea.Msg {
		msg := detailMsg{zone: zoneName}

		ch, err := source.ZoneAttributes(ctx, zoneName)
		if err == nil {
			msg.attrs, err = query.Await(ctx, ch)
		}
		msg.attrErr = err

		if len(services) > 0 {
			msg.services, msg.svcErr = source.ZoneServiceStates(ctx, zoneName, services)
		}
		return msg
	}
}

func (m Model) loadSelectedDetail() tea.Cmd {
	z, ok := m.selected()
	if !ok {
		return nil
	}
	return loadDetail(m.ctx, m.source, z.Name, m.services)
}

// Init starts the initial loading.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadZones(m.ctx, m.source), m.tickCmd())
}

// Update handles events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.state == stateList {
			if z, ok := m.selected(); ok {
				m.selectedName = z.Name
			}
			return m, tea.Batch(loadZones(m.ctx, m.source), m.tickCmd())
		}
		return m, m.tickCmd()

	case loadedMsg:
		if msg.err != nil {
			m.state = stateResult
			m.message = msg.err.Error()
			m.isError = true
			return m, nil
		}
		m.zones = msg.zones
		m.current = msg.current
		m.state = stateList
		m.restoreCursor()
		return m, m.loadSelectedDetail()

	case detailMsg:
		m.details[msg.zone] = msg.detail
		return m, nil
	}

	return m, nil
}

// restoreCursor puts the cursor back on the previously selected zone,
// falling back to the nearest valid row.
func (m *Model) restoreCursor() {
	visible := m.visibleZones()
	if m.selectedName != "" {
		m.cursor = 0
		for i, z := range visible {
			if z.Name == m.selectedName {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= len(visible) {
		m.cursor = max(0, len(visible)-1)
	}
	if m.cursor < len(visible) {
		m.selectedName = visible[m.cursor].Name
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateList:
		switch msg.String() {
		case "ctrl+g", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.search != "" {
				m.search = ""
				m.cursor = 0
				return m, m.moved()
			}
			m.quitting = true
			return m, tea.Quit
		case "backspace":
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.cursor = 0
				return m, m.moved()
			}
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, m.moved()
		case "down", "ctrl+n":
			if m.cursor < len(m.visibleZones())-1 {
				m.cursor++
			}
			return m, m.moved()
		case "ctrl+r":
			if z, ok := m.selected(); ok {
				m.selectedName = z.Name
			}
			m.state = stateLoading
			return m, loadZones(m.ctx, m.source)
		default:
			if msg.Type == tea.KeyRunes {
				m.search += string(msg.Runes)
				m.cursor = 0
				return m, m.moved()
			}
		}

	case stateResult:
		switch msg.String() {
		case "ctrl+g", "ctrl+c", "esc", "enter":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+b":
			m.state = stateLoading
			m.cursor = 0
			return m, loadZones(m.ctx, m.source)
		}
	}

	return m, nil
}

// moved records the new selection and fetches its detail if not cached.
func (m *Model) moved() tea.Cmd {
	z, ok := m.selected()
	if !ok {
		return nil
	}
	m.selectedName = z.Name
	if _, cached := m.details[z.Name]; cached {
		return nil
	}
	return loadDetail(m.ctx, m.source, z.Name, m.services)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case stateLoading:
		return m.viewLoading()
	case stateList:
		return m.viewList()
	case stateResult:
		return m.viewResult()
	}
	return ""
}

func (m Model) viewLoading() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		"  Reading zone table...",
		"",
	)
}

func (m Model) viewList() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.buildTitle()),
		m.buildSearchBar(),
		m.buildTable(),
		m.buildDetailPanel(),
		m.buildHelp(),
		"",
	)
}

func (m Model) viewResult() string {
	var msg string
	if m.isError {
		msg = errorStyle.Render("  " + m.message)
	} else {
		msg = successStyle.Render("  " + m.message)
	}
	help := helpStyle.Render("  C-b retry • C-g/enter quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		msg,
		help,
		"",
	)
}

func (m Model) buildTitle() string {
	return fmt.Sprintf("Zones (%d) from %s", len(m.zones), m.current)
}

// buildSearchBar renders a persistent filter input line.
func (m Model) buildSearchBar() string {
	prompt := searchPromptStyle.Render("/ ")
	if m.search == "" {
		return prompt + searchPlaceholderStyle.Render("type to filter by name or id")
	}
	return prompt + searchStyle.Render(m.search+"█")
}

func (m Model) buildHelp() string {
	return helpStyle.Render("C-p/C-n navigate • type to filter • C-r refresh • auto • C-g quit")
}

func (m Model) buildTable() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	visible := m.visibleZones()
	rows := make([][]string, len(visible))
	for i, z := range visible {
		rows[i] = m.buildRow(i, z)
	}

	t := table.New().
		Headers("", "ID", "NAME", "STATUS", "BRAND").
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderColumn(false).
		BorderRow(false).
		Width(width).
		StyleFunc(m.tableStyleFunc)

	return t.Render()
}

func (m Model) tableStyleFunc(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		s := tableHeaderStyle
		if col == 0 {
			return s.Width(2)
		}
		return s
	}

	if row == m.cursor {
		s := tableSelectedStyle
		if col == 0 {
			return s.Width(2)
		}
		return s
	}

	s := tableCellStyle
	switch col {
	case 0:
		return s.Width(2)
	case 1: // ID
		return s.Foreground(colorYellow)
	case 2: // NAME
		return s.Foreground(colorAccent)
	case 3: // STATUS
		visible := m.visibleZones()
		if row < len(visible) {
			return s.Foreground(statusColor(visible[row].Status))
		}
	case 4: // BRAND
		return s.Foreground(colorSubtle)
	}
	return s
}

func (m Model) buildRow(index int, z zone.Zone) []string {
	sel := " "
	if index == m.cursor {
		sel = ">"
	}
	return []string{sel, strconv.Itoa(z.ID), zone.ShortName(z.Name), string(z.Status), z.Brand}
}

// buildDetailPanel renders configuration and watched services of the
// selected zone.
func (m Model) buildDetailPanel() string {
	z, ok := m.selected()
	if !ok {
		return ""
	}

	var lines []string
	lines = append(lines, detailLabelStyle.Render("Zone")+detailValueStyle.Render(z.Name))
	if z.Path != "" {
		lines = append(lines, detailLabelStyle.Render("Path")+detailValueStyle.Render(z.Path))
	}
	if z.IPType != "" {
		lines = append(lines, detailLabelStyle.Render("IP type")+detailValueStyle.Render(z.IPType))
	}

	d, loaded := m.details[z.Name]
	switch {
	case !loaded:
		lines = append(lines, detailLabelStyle.Render("Attrs")+detailValueStyle.Render("loading..."))
	case d.attrErr != nil:
		lines = append(lines, detailLabelStyle.Render("Attrs")+warningStyle.Render(d.attrErr.Error()))
	case len(d.attrs) == 0:
		lines = append(lines, detailLabelStyle.Render("Attrs")+detailValueStyle.Render("none"))
	default:
		parts := make([]string, len(d.attrs))
		for i, a := range d.attrs {
			parts[i] = a.Name + "=" + a.Value
		}
		lines = append(lines, detailLabelStyle.Render("Attrs")+detailValueStyle.Render(strings.Join(parts, " ")))
	}

	if loaded {
		if d.svcErr != nil {
			lines = append(lines, detailLabelStyle.Render("Services")+warningStyle.Render(d.svcErr.Error()))
		}
		for _, st := range d.services {
			lines = append(lines, detailLabelStyle.Render("Service")+renderService(st))
		}
	}

	var tags []string
	if z.IsGlobal() {
		tags = append(tags, tagGlobalStyle.Render("global"))
	}
	if z.Name == m.current {
		tags = append(tags, tagCurrentStyle.Render("current"))
	}
	if len(tags) > 0 {
		lines = append(lines, detailLabelStyle.Render("")+strings.Join(tags, " "))
	}

	content := strings.Join(lines, "\n")
	if m.width > 0 {
		// Account for border (2 chars) and padding (2 chars)
		return detailPanelStyle.Width(m.width - 4).Render(content)
	}
	return detailPanelStyle.Render(content)
}

func renderService(st query.ServiceStatus) string {
	name := detailValueStyle.Render(st.FMRI + " ")
	if st.Err != nil {
		return name + warningStyle.Render(zone.KindOf(st.Err))
	}
	if st.State.IsHealthy() {
		return name + successStyle.Render(string(st.State))
	}
	if st.State == smf.StateMaintenance || st.State == smf.StateDegraded {
		return name + errorStyle.Render(string(st.State))
	}
	return name + statusBarStyle.Render(string(st.State))
}
