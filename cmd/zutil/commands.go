package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dnlvgl/zutil/internal/exporter"
	"github.com/dnlvgl/zutil/internal/metrics"
	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/ui"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

// errServicesFailed marks a svc run where at least one query failed.
var errServicesFailed = errors.New("service queries failed")

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List zones in the kernel zone table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}
			zones := c.ListZones()
			return render(cmd.OutOrStdout(), a.output, zones, func() string {
				return ui.ZonesTable(zones)
			})
		},
	}
}

func (a *app) currentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the zone zutil runs in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return a.printZone(cmd, c.CurrentZone())
		},
	}
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|name>",
		Short: "Show one zone by id or name",
		Long: "Show one zone. A bare run of digits or #<id> is a zone id; @<name>\n" +
			"forces a name lookup for zones whose name is all digits.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := zone.ParseRef(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}
			z, err := c.Lookup(ref)
			if err != nil {
				return err
			}
			return a.printZone(cmd, z)
		},
	}
}

func (a *app) printZone(cmd *cobra.Command, z zone.Zone) error {
	return render(cmd.OutOrStdout(), a.output, z, func() string {
		return ui.ZonesTable([]zone.Zone{z})
	})
}

func (a *app) attrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attrs <zone> [attribute]",
		Short: "Show configuration attributes of a zone",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx, nil)
			if err != nil {
				return err
			}

			if len(args) == 2 {
				ch, err := c.ZoneAttribute(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				attr, err := query.Await(ctx, ch)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.output, attr, func() string {
					return ui.AttributesTable([]zonecfg.Attribute{attr})
				})
			}

			ch, err := c.ZoneAttributes(ctx, args[0])
			if err != nil {
				return err
			}
			attrs, err := query.Await(ctx, ch)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.output, attrs, func() string {
				return ui.AttributesTable(attrs)
			})
		},
	}
}

func (a *app) svcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "svc <zone> [fmri...]",
		Short: "Show service states inside a zone",
		Long: "Show the SMF state of each service inside a zone. Without FMRIs the\n" +
			"services listed in the config file are queried.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmris := args[1:]
			if len(fmris) == 0 {
				fmris = a.cfg.Services
			}
			c, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}
			states, err := c.ZoneServiceStates(cmd.Context(), args[0], fmris)
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), a.output, serviceRows(states), func() string {
				return ui.ServicesTable(states)
			}); err != nil {
				return err
			}

			failed := 0
			for _, st := range states {
				if st.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d: %w", failed, len(states), errServicesFailed)
			}
			return nil
		},
	}
}

func (a *app) browseCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse zones interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return ui.Browse(cmd.Context(), c, a.cfg.Services, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "refresh", ui.DefaultRefreshInterval, "Auto refresh interval")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Serve zone data and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = a.cfg.Exporter.Addr
			}
			m := metrics.New()
			c, err := a.client(cmd.Context(), m)
			if err != nil {
				return err
			}
			s := exporter.NewServer(exporter.Options{
				Addr:     addr,
				Source:   c,
				Metrics:  m,
				Services: a.cfg.Services,
				Interval: interval,
				Logger:   a.logger,
			})
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", exporter.DefaultInterval, "Collection interval")
	return cmd
}
