package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/smf"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

type fakeSource struct {
	zones      []zone.Zone
	refreshErr error
	refreshes  int
	attrs      map[string][]zonecfg.Attribute
}

func (f *fakeSource) Refresh(context.Context) error {
	f.refreshes++
	return f.refreshErr
}

func (f *fakeSource) CurrentZone() zone.Zone { return f.zones[0] }

func (f *fakeSource) ListZones() []zone.Zone { return f.zones }

func (f *fakeSource) ZoneAttributes(_ context.Context, name string) (<-chan query.Result[[]zonecfg.Attribute], error) {
	ch := make(chan query.Result[[]zonecfg.Attribute], 1)
	attrs, ok := f.attrs[name]
	if !ok {
		ch <- query.Result[[]zonecfg.Attribute]{Err: fmt.Errorf("zone %q: %w", name, zone.ErrZoneNotFound)}
	} else {
		ch <- query.Result[[]zonecfg.Attribute]{Value: attrs}
	}
	close(ch)
	return ch, nil
}

func (f *fakeSource) ZoneServiceStates(_ context.Context, _ string, fmris []string) ([]query.ServiceStatus, error) {
	out := make([]query.ServiceStatus, len(fmris))
	for i, fmri := range fmris {
		out[i] = query.ServiceStatus{FMRI: fmri, State: smf.StateOnline}
	}
	return out, nil
}

func newFake() *fakeSource {
	return &fakeSource{
		zones: []zone.Zone{
			{ID: 0, Name: "global", Status: zone.StatusRunning, Path: "/", Brand: "ipkg"},
			{ID: 3, Name: "web", Status: zone.StatusRunning, Path: "/zones/web", Brand: "joyent", IPType: "excl"},
			{ID: 7, Name: "db", Status: zone.StatusDown, Path: "/zones/db", Brand: "lx"},
		},
		attrs: map[string][]zonecfg.Attribute{
			"global": {},
			"web":    {{Name: "owner", Type: zonecfg.TypeString, Value: "ops"}},
		},
	}
}

// drive runs cmd and feeds the resulting message back into the model.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func loaded(t *testing.T, src *fakeSource) Model {
	t.Helper()
	m := New(context.Background(), src, []string{"svc:/network/ssh:default"}, 0)
	next, cmd := m.Update(loadZones(m.ctx, src)())
	m = next.(Model)
	return drive(t, m, cmd)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(key(k))
	return drive(t, next.(Model), cmd)
}

func TestLoad(t *testing.T) {
	src := newFake()
	m := loaded(t, src)

	assert.Equal(t, stateList, m.state)
	assert.Len(t, m.zones, 3)
	assert.Equal(t, "global", m.current)
	assert.Equal(t, "global", m.selectedName)
	require.Contains(t, m.details, "global")
	assert.Len(t, m.details["global"].services, 1)

	view := m.View()
	assert.Contains(t, view, "Zones (3) from global")
	assert.Contains(t, view, "web")
	assert.Contains(t, view, "svc:/network/ssh:default")
}

func TestLoadError(t *testing.T) {
	src := newFake()
	src.refreshErr = fmt.Errorf("%w: zoneadm: exit status 1", zone.ErrRegistryUnavailable)

	m := New(context.Background(), src, nil, 0)
	next, _ := m.Update(loadZones(m.ctx, src)())
	m = next.(Model)

	assert.Equal(t, stateResult, m.state)
	assert.True(t, m.isError)
	assert.Contains(t, m.View(), "zone registry unavailable")
}

func TestNavigationLoadsDetail(t *testing.T) {
	m := loaded(t, newFake())

	m = press(t, m, "down")
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "web", m.selectedName)
	require.Contains(t, m.details, "web")
	assert.Equal(t, "ops", m.details["web"].attrs[0].Value)
	assert.Contains(t, m.View(), "owner=ops")

	m = press(t, m, "down")
	assert.Equal(t, "db", m.selectedName)
	assert.True(t, errors.Is(m.details["db"].attrErr, zone.ErrZoneNotFound))

	m = press(t, m, "down")
	assert.Equal(t, 2, m.cursor, "cursor stops at the last row")

	m = press(t, m, "up")
	assert.Equal(t, 1, m.cursor)
}

func TestFilter(t *testing.T) {
	m := loaded(t, newFake())

	m = press(t, m, "w")
	assert.Equal(t, "w", m.search)
	require.Len(t, m.visibleZones(), 1)
	assert.Equal(t, "web", m.selectedName)

	m = press(t, m, "backspace")
	assert.Len(t, m.visibleZones(), 3)

	m = press(t, m, "7")
	require.Len(t, m.visibleZones(), 1)
	assert.Equal(t, "db", m.visibleZones()[0].Name)

	m = press(t, m, "esc")
	assert.Empty(t, m.search)
	assert.False(t, m.quitting)

	m = press(t, m, "esc")
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestRefreshKeepsSelection(t *testing.T) {
	src := newFake()
	m := loaded(t, src)
	m = press(t, m, "down")
	require.Equal(t, "web", m.selectedName)

	// web moves to the end of the table
	src.zones = []zone.Zone{src.zones[0], src.zones[2], {ID: 9, Name: "web", Status: zone.StatusRunning}}
	m = press(t, m, "ctrl+r")

	assert.Equal(t, stateList, m.state)
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, "web", m.selectedName)
	assert.Equal(t, 2, src.refreshes)
}

func TestTickReloadsOnlyInList(t *testing.T) {
	src := newFake()
	m := New(context.Background(), src, nil, 0)

	_, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, 0, src.refreshes, "loading state only reschedules the tick")

	m = loaded(t, src)
	_, cmd = m.Update(tickMsg{})
	assert.NotNil(t, cmd)
}

func TestStaticTables(t *testing.T) {
	src := newFake()

	zones := ZonesTable(src.zones)
	assert.Contains(t, zones, "NAME")
	assert.Contains(t, zones, "/zones/web")

	attrs := AttributesTable(src.attrs["web"])
	assert.Contains(t, attrs, "owner")
	assert.Contains(t, attrs, "ops")

	services := ServicesTable([]query.ServiceStatus{
		{FMRI: "svc:/network/ssh:default", State: smf.StateMaintenance},
		{FMRI: "svc:/site/gone:default", Err: zone.ErrServiceNotFound},
	})
	lines := strings.Split(services, "\n")
	assert.Contains(t, services, "maintenance")
	assert.Contains(t, services, "service_not_found")
	assert.GreaterOrEqual(t, len(lines), 3)
}
