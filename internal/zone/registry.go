package zone

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dnlvgl/zutil/internal/command"
)

// Commands names the host tools the registry runs.
type Commands struct {
	Zoneadm  string
	Zonename string
}

// DefaultCommands are the illumos tool paths.
var DefaultCommands = Commands{
	Zoneadm:  "/usr/sbin/zoneadm",
	Zonename: "/usr/bin/zonename",
}

// Registry takes snapshots of the kernel zone table. It holds no state
// between calls; every Snapshot call queries the host again.
type Registry struct {
	runner   command.Runner
	cmds     Commands
	logger   *zap.Logger
	supports func() bool
	now      func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCommands overrides the tool paths.
func WithCommands(c Commands) RegistryOption {
	return func(r *Registry) {
		if c.Zoneadm != "" {
			r.cmds.Zoneadm = c.Zoneadm
		}
		if c.Zonename != "" {
			r.cmds.Zonename = c.Zonename
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithPlatformCheck replaces the check that the host kernel has zones.
func WithPlatformCheck(f func() bool) RegistryOption {
	return func(r *Registry) { r.supports = f }
}

// NewRegistry returns a registry that runs commands through runner.
func NewRegistry(runner command.Runner, opts ...RegistryOption) *Registry {
	r := &Registry{
		runner:   runner,
		cmds:     DefaultCommands,
		logger:   zap.NewNop(),
		supports: Supported,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot queries the zone table once and returns an immutable snapshot.
// Any failure wraps ErrRegistryUnavailable.
func (r *Registry) Snapshot(ctx context.Context) (*Snapshot, error) {
	if !r.supports() {
		return nil, fmt.Errorf("%w: zones are not supported on %s", ErrRegistryUnavailable, Sysname())
	}

	out, err := r.runner.Run(ctx, r.cmds.Zoneadm, "list", "-cp")
	if err != nil {
		return nil, r.unavailable("list zones", err)
	}
	zones, err := ParseList(out)
	if err != nil {
		return nil, r.unavailable("parse zone list", err)
	}

	out, err = r.runner.Run(ctx, r.cmds.Zonename)
	if err != nil {
		return nil, r.unavailable("read current zone", err)
	}
	current, err := ParseZonename(out)
	if err != nil {
		return nil, r.unavailable("read current zone", err)
	}

	snap, err := NewSnapshot(zones, current, r.now())
	if err != nil {
		return nil, r.unavailable("validate zone table", err)
	}
	r.logger.Debug("took zone snapshot",
		zap.Int("zones", snap.Len()),
		zap.String("current", current))
	return snap, nil
}

// Resolver takes a fresh snapshot and returns a resolver over it.
func (r *Registry) Resolver(ctx context.Context) (*Resolver, error) {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return NewResolver(snap), nil
}

func (r *Registry) unavailable(step string, err error) error {
	r.logger.Warn("zone registry unavailable", zap.String("step", step), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrRegistryUnavailable, step, err)
}
