package smf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dnlvgl/zutil/internal/command"
	"github.com/dnlvgl/zutil/internal/zone"
)

// Commands names the host tools the querier runs.
type Commands struct {
	Svcprop string
	Svcs    string
}

// DefaultCommands are the illumos tool paths.
var DefaultCommands = Commands{
	Svcprop: "/usr/bin/svcprop",
	Svcs:    "/usr/bin/svcs",
}

// Resolver validates zones and identifies the caller's own zone.
type Resolver interface {
	ZoneByName(name string) (zone.Zone, error)
	CurrentZone() zone.Zone
}

// Querier issues live, zone-scoped service state queries.
type Querier struct {
	runner   command.Runner
	resolver Resolver
	cmds     Commands
	logger   *zap.Logger
}

// NewQuerier returns a querier. Empty command paths fall back to
// DefaultCommands.
func NewQuerier(runner command.Runner, resolver Resolver, cmds Commands, logger *zap.Logger) *Querier {
	if cmds.Svcprop == "" {
		cmds.Svcprop = DefaultCommands.Svcprop
	}
	if cmds.Svcs == "" {
		cmds.Svcs = DefaultCommands.Svcs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Querier{runner: runner, resolver: resolver, cmds: cmds, logger: logger}
}

// State returns the current state of fmri inside the named zone. It blocks
// until the service manager answers or the runner's timeout expires.
func (q *Querier) State(ctx context.Context, zoneName, fmri string) (State, error) {
	z, err := q.resolver.ZoneByName(zoneName)
	if err != nil {
		return "", err
	}

	f, err := ParseFMRI(fmri)
	if err != nil {
		return "", fmt.Errorf("%w: %w", zone.ErrServiceQuery, err)
	}

	name, args := q.queryArgs(z, f)
	out, err := q.runner.Run(ctx, name, args...)
	if err != nil {
		q.logger.Warn("service state query failed",
			zap.String("zone", z.Name),
			zap.String("fmri", f.String()),
			zap.Error(err))
		return "", classify(z.Name, f, err)
	}

	state, err := ParseState(firstLine(out))
	if err != nil {
		return "", fmt.Errorf("%w: %s in zone %q: %w", zone.ErrServiceQuery, f, z.Name, err)
	}
	q.logger.Debug("queried service state",
		zap.String("zone", z.Name),
		zap.String("fmri", f.String()),
		zap.String("state", string(state)))
	return state, nil
}

// queryArgs builds the command for one query. Legacy run scripts have no
// restarter property group, so their state comes from svcs. The -z flag is
// omitted when querying the caller's own zone.
func (q *Querier) queryArgs(z zone.Zone, f FMRI) (string, []string) {
	var name string
	var args []string
	if f.IsLegacy() {
		name = q.cmds.Svcs
		args = []string{"-H", "-o", "state"}
	} else {
		name = q.cmds.Svcprop
		args = []string{"-p", "restarter/state"}
	}
	if z.Name != q.resolver.CurrentZone().Name {
		args = append(args, "-z", z.Name)
	}
	return name, append(args, f.String())
}

// classify maps a failed query onto the error taxonomy.
func classify(zoneName string, f FMRI, err error) error {
	if errors.Is(err, command.ErrTimeout) {
		return fmt.Errorf("%s in zone %q: %w", f, zoneName, err)
	}
	stderr := command.StderrOf(err)
	if strings.Contains(stderr, "doesn't match any") {
		return fmt.Errorf("%s in zone %q: %w", f, zoneName, zone.ErrServiceNotFound)
	}
	return fmt.Errorf("%w: %s in zone %q: %w", zone.ErrServiceQuery, f, zoneName, err)
}

func firstLine(out []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line
}
