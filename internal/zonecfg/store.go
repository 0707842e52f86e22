package zonecfg

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dnlvgl/zutil/internal/command"
	"github.com/dnlvgl/zutil/internal/zone"
)

// DefaultCommand is the illumos zonecfg path.
const DefaultCommand = "/usr/sbin/zonecfg"

// Resolver validates that a zone exists before it is queried.
type Resolver interface {
	ZoneByName(name string) (zone.Zone, error)
}

// Store reads zone attributes from the zone configuration store. Nothing is
// cached: the store is mutable outside this process, so every call queries
// zonecfg again.
type Store struct {
	runner   command.Runner
	resolver Resolver
	cmd      string
	logger   *zap.Logger
}

// NewStore returns a store. An empty cmd means DefaultCommand.
func NewStore(runner command.Runner, resolver Resolver, cmd string, logger *zap.Logger) *Store {
	if cmd == "" {
		cmd = DefaultCommand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{runner: runner, resolver: resolver, cmd: cmd, logger: logger}
}

// List returns every attribute configured for the named zone. A zone with no
// attributes yields an empty slice and a nil error.
func (s *Store) List(ctx context.Context, zoneName string) ([]Attribute, error) {
	z, err := s.resolver.ZoneByName(zoneName)
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, s.cmd, "-z", z.Name, "info", "attr")
	if err != nil {
		s.logger.Warn("zonecfg query failed", zap.String("zone", z.Name), zap.Error(err))
		return nil, fmt.Errorf("query attributes of zone %q: %w", z.Name, err)
	}

	attrs, err := Parse(out)
	if err != nil {
		s.logger.Warn("zonecfg output rejected", zap.String("zone", z.Name), zap.Error(err))
		return nil, fmt.Errorf("attributes of zone %q: %w", z.Name, err)
	}
	s.logger.Debug("read zone attributes", zap.String("zone", z.Name), zap.Int("count", len(attrs)))
	return attrs, nil
}

// Get returns the attribute named attrName.
func (s *Store) Get(ctx context.Context, zoneName, attrName string) (Attribute, error) {
	if err := zone.RequireName("attribute", attrName); err != nil {
		return Attribute{}, err
	}

	attrs, err := s.List(ctx, zoneName)
	if err != nil {
		return Attribute{}, err
	}
	for _, a := range attrs {
		if a.Name == attrName {
			return a, nil
		}
	}
	return Attribute{}, fmt.Errorf("attribute %q of zone %q: %w", attrName, zoneName, zone.ErrAttributeNotFound)
}
