// Package query is the public surface over the zone registry, the attribute
// store and the service state querier.
//
// Identity lookups are synchronous and never perform I/O; they read the
// snapshot taken by New or the last Refresh; any id or name missing from it,
// including a negative id or an empty name, is zone.ErrZoneNotFound.
// Attribute and service queries run against the host and are delivered
// through Result channels. A missing attribute name or service identifier is
// reported synchronously as *zone.ValidationError and never reaches a
// channel.
package query

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dnlvgl/zutil/internal/command"
	"github.com/dnlvgl/zutil/internal/metrics"
	"github.com/dnlvgl/zutil/internal/smf"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

// Snapshotter produces zone table snapshots. *zone.Registry implements it.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*zone.Snapshot, error)
}

// Options configures a Client.
type Options struct {
	Registry       Snapshotter
	Runner         command.Runner
	ZonecfgCommand string
	SMFCommands    smf.Commands
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Parallelism bounds concurrent service queries in ZoneServiceStates.
	Parallelism int
}

// Client answers zone queries.
type Client struct {
	registry    Snapshotter
	runner      command.Runner
	zonecfgCmd  string
	smfCmds     smf.Commands
	logger      *zap.Logger
	metrics     *metrics.Metrics
	parallelism int

	resolver atomic.Pointer[zone.Resolver]
}

// New returns a client holding a first snapshot of the zone table.
func New(ctx context.Context, opts Options) (*Client, error) {
	c := &Client{
		registry:    opts.Registry,
		runner:      opts.Runner,
		zonecfgCmd:  opts.ZonecfgCommand,
		smfCmds:     opts.SMFCommands,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		parallelism: opts.Parallelism,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.parallelism <= 0 {
		c.parallelism = 8
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh takes a new snapshot. Calls already running keep the snapshot
// they started with.
func (c *Client) Refresh(ctx context.Context) error {
	started := time.Now()
	snap, err := c.registry.Snapshot(ctx)
	c.observe("refresh", started, err)
	if err != nil {
		return err
	}
	c.resolver.Store(zone.NewResolver(snap))
	if c.metrics != nil {
		c.metrics.ObserveSnapshot(snap)
	}
	c.logger.Debug("refreshed zone snapshot", zap.Int("zones", snap.Len()))
	return nil
}

// Snapshot returns the snapshot identity lookups currently read from.
func (c *Client) Snapshot() *zone.Snapshot {
	return c.resolver.Load().Snapshot()
}

// CurrentZone returns the zone this process runs in.
func (c *Client) CurrentZone() zone.Zone {
	return c.resolver.Load().Current()
}

// ZoneByID returns the zone with the given id.
func (c *Client) ZoneByID(id int) (zone.Zone, error) {
	return c.resolver.Load().ByID(id)
}

// ZoneByName returns the zone with the given name.
func (c *Client) ZoneByName(name string) (zone.Zone, error) {
	return c.resolver.Load().ByName(name)
}

// Lookup resolves a zone reference parsed from user input.
func (c *Client) Lookup(ref zone.Ref) (zone.Zone, error) {
	return c.resolver.Load().Lookup(ref)
}

// ListZones returns every zone ordered by ascending id, global first.
func (c *Client) ListZones() []zone.Zone {
	return c.resolver.Load().All()
}

// ZoneAttributes queries all attributes of a zone. An unknown zone is
// reported on the channel as zone.ErrZoneNotFound.
func (c *Client) ZoneAttributes(ctx context.Context, zoneName string) (<-chan Result[[]zonecfg.Attribute], error) {
	store := c.attributeStore()
	return async(func() ([]zonecfg.Attribute, error) {
		started := time.Now()
		attrs, err := store.List(ctx, zoneName)
		c.observe("attributes", started, err)
		return attrs, err
	}), nil
}

// ZoneAttribute queries a single attribute of a zone.
func (c *Client) ZoneAttribute(ctx context.Context, zoneName, attrName string) (<-chan Result[zonecfg.Attribute], error) {
	if err := zone.RequireName("attribute", attrName); err != nil {
		return nil, err
	}
	store := c.attributeStore()
	return async(func() (zonecfg.Attribute, error) {
		started := time.Now()
		attr, err := store.Get(ctx, zoneName, attrName)
		c.observe("attribute", started, err)
		return attr, err
	}), nil
}

// ZoneServiceState returns the state of fmri in the named zone. It blocks
// until the service manager answers.
func (c *Client) ZoneServiceState(ctx context.Context, zoneName, fmri string) (smf.State, error) {
	if err := validateService(fmri); err != nil {
		return "", err
	}
	return c.serviceState(ctx, c.querier(), zoneName, fmri)
}

// ZoneServiceStateAsync is ZoneServiceState delivered through a channel.
func (c *Client) ZoneServiceStateAsync(ctx context.Context, zoneName, fmri string) (<-chan Result[smf.State], error) {
	if err := validateService(fmri); err != nil {
		return nil, err
	}
	q := c.querier()
	return async(func() (smf.State, error) {
		return c.serviceState(ctx, q, zoneName, fmri)
	}), nil
}

// ServiceStatus is the outcome of one query in ZoneServiceStates.
type ServiceStatus struct {
	FMRI  string
	State smf.State
	Err   error
}

// ZoneServiceStates queries several services of one zone concurrently. Each
// entry carries its own error; the order of fmris is preserved.
func (c *Client) ZoneServiceStates(ctx context.Context, zoneName string, fmris []string) ([]ServiceStatus, error) {
	for _, f := range fmris {
		if err := validateService(f); err != nil {
			return nil, err
		}
	}

	q := c.querier()
	out := make([]ServiceStatus, len(fmris))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, f := range fmris {
		g.Go(func() error {
			state, err := c.serviceState(gctx, q, zoneName, f)
			out[i] = ServiceStatus{FMRI: f, State: state, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (c *Client) serviceState(ctx context.Context, q *smf.Querier, zoneName, fmri string) (smf.State, error) {
	started := time.Now()
	state, err := q.State(ctx, zoneName, fmri)
	c.observe("service_state", started, err)
	return state, err
}

// attributeStore binds a store to the current snapshot.
func (c *Client) attributeStore() *zonecfg.Store {
	return zonecfg.NewStore(c.runner, bound{c.resolver.Load()}, c.zonecfgCmd, c.logger)
}

// querier binds a service querier to the current snapshot.
func (c *Client) querier() *smf.Querier {
	return smf.NewQuerier(c.runner, bound{c.resolver.Load()}, c.smfCmds, c.logger)
}

func (c *Client) observe(op string, started time.Time, err error) {
	if c.metrics != nil {
		c.metrics.ObserveQuery(op, started, err)
	}
}

func validateService(fmri string) error {
	return zone.RequireName("service", fmri)
}

// bound adapts one resolver to the lookups zonecfg and smf need.
type bound struct {
	r *zone.Resolver
}

func (b bound) ZoneByName(name string) (zone.Zone, error) { return b.r.ByName(name) }

func (b bound) CurrentZone() zone.Zone { return b.r.Current() }
