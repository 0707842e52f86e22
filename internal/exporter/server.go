// Package exporter serves zone data and Prometheus metrics over HTTP.
package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dnlvgl/zutil/internal/metrics"
	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/zone"
	"github.com/dnlvgl/zutil/internal/zonecfg"
)

// DefaultInterval is how often the collector refreshes the zone table and
// the watched service states.
const DefaultInterval = 30 * time.Second

const shutdownTimeout = 10 * time.Second

// Source is the part of query.Client the exporter reads from.
type Source interface {
	Refresh(ctx context.Context) error
	Snapshot() *zone.Snapshot
	ListZones() []zone.Zone
	Lookup(ref zone.Ref) (zone.Zone, error)
	ZoneAttributes(ctx context.Context, zoneName string) (<-chan query.Result[[]zonecfg.Attribute], error)
	ZoneServiceStates(ctx context.Context, zoneName string, fmris []string) ([]query.ServiceStatus, error)
}

// Options configures a Server.
type Options struct {
	Addr     string
	Source   Source
	Metrics  *metrics.Metrics
	Services []string
	Interval time.Duration
	Logger   *zap.Logger
}

// Server is the HTTP exporter.
type Server struct {
	source   Source
	metrics  *metrics.Metrics
	services []string
	interval time.Duration
	logger   *zap.Logger
	http     *http.Server
}

// NewServer returns a server listening on opts.Addr once Run is called.
func NewServer(opts Options) *Server {
	s := &Server{
		source:   opts.Source,
		metrics:  opts.Metrics,
		services: opts.Services,
		interval: opts.Interval,
		logger:   opts.Logger,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/healthz", s.health)
	r.Route("/zones", func(r chi.Router) {
		r.Get("/", s.listZones)
		r.Get("/{zone}", s.getZone)
		r.Get("/{zone}/attributes", s.zoneAttributes)
		r.Get("/{zone}/services", s.zoneServices)
	})
	return r
}

// Run serves until ctx is done, then shuts down gracefully. The collector
// refreshes the snapshot and the watched services every interval.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("exporter listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down exporter")
		return s.http.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			s.Collect(gctx)
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return g.Wait()
}

// Collect refreshes the zone table and queries the watched services in
// every running zone. The service state series are replaced by the result,
// so zones and services that went away stop being exported. Failures are
// logged; the previous snapshot stays.
func (s *Server) Collect(ctx context.Context) {
	if err := s.source.Refresh(ctx); err != nil {
		s.logger.Warn("zone refresh failed", zap.Error(err))
		return
	}

	var (
		mu  sync.Mutex
		obs []metrics.ServiceObservation
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, z := range s.source.ListZones() {
		if z.Status != zone.StatusRunning || len(s.services) == 0 {
			continue
		}
		g.Go(func() error {
			states, err := s.source.ZoneServiceStates(gctx, z.Name, s.services)
			if err != nil {
				s.logger.Warn("service collection failed", zap.String("zone", z.Name), zap.Error(err))
				return nil
			}
			for _, st := range states {
				if st.Err != nil {
					s.logger.Warn("service state query failed",
						zap.String("zone", z.Name),
						zap.String("fmri", st.FMRI),
						zap.String("kind", zone.KindOf(st.Err)),
						zap.Error(st.Err))
					continue
				}
				mu.Lock()
				obs = append(obs, metrics.ServiceObservation{Zone: z.Name, FMRI: st.FMRI, State: st.State})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	s.metrics.SetServiceStates(obs)
}

type healthResponse struct {
	Status   string    `json:"status"`
	Zones    int       `json:"zones"`
	Snapshot time.Time `json:"snapshot"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	s.respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Zones: snap.Len(), Snapshot: snap.Taken()})
}

func (s *Server) listZones(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"zones": s.source.ListZones(),
	})
}

func (s *Server) getZone(w http.ResponseWriter, r *http.Request) {
	z, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, z)
}

func (s *Server) zoneAttributes(w http.ResponseWriter, r *http.Request) {
	z, ok := s.lookup(w, r)
	if !ok {
		return
	}
	ch, err := s.source.ZoneAttributes(r.Context(), z.Name)
	if err != nil {
		s.respondError(w, err)
		return
	}
	attrs, err := query.Await(r.Context(), ch)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"zone":       z.Name,
		"attributes": attrs,
	})
}

type serviceResponse struct {
	FMRI  string `json:"fmri"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind"`
}

func (s *Server) zoneServices(w http.ResponseWriter, r *http.Request) {
	z, ok := s.lookup(w, r)
	if !ok {
		return
	}
	fmris := r.URL.Query()["fmri"]
	if len(fmris) == 0 {
		fmris = s.services
	}
	states, err := s.source.ZoneServiceStates(r.Context(), z.Name, fmris)
	if err != nil {
		s.respondError(w, err)
		return
	}

	out := make([]serviceResponse, 0, len(states))
	for _, st := range states {
		resp := serviceResponse{FMRI: st.FMRI, State: string(st.State), Kind: zone.KindOf(st.Err)}
		if st.Err != nil {
			resp.Error = st.Err.Error()
		}
		out = append(out, resp)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"zone":     z.Name,
		"services": out,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (zone.Zone, bool) {
	ref, err := zone.ParseRef(chi.URLParam(r, "zone"))
	if err != nil {
		s.respondError(w, err)
		return zone.Zone{}, false
	}
	z, err := s.source.Lookup(ref)
	if err != nil {
		s.respondError(w, err)
		return zone.Zone{}, false
	}
	return z, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	kind := zone.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.Error(err), zap.Int("status", status))
	}
	s.respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  kind,
	})
}

func statusFor(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "zone_not_found", "attribute_not_found", "service_not_found":
		return http.StatusNotFound
	case "timeout":
		return http.StatusGatewayTimeout
	case "registry_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
