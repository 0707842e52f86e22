package exporter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnlvgl/zutil/internal/command/commandtest"
	"github.com/dnlvgl/zutil/internal/metrics"
	"github.com/dnlvgl/zutil/internal/query"
	"github.com/dnlvgl/zutil/internal/smf"
	"github.com/dnlvgl/zutil/internal/zone"
)

const (
	multiUser = "svc:/milestone/multi-user:default"
	ssh       = "svc:/network/ssh:default"
)

func testServer(t *testing.T) (*Server, *metrics.Metrics, *commandtest.Runner) {
	t.Helper()
	runner := commandtest.New().
		On("/usr/sbin/zoneadm list -cp", commandtest.Response{Stdout: "0:global:running:/::ipkg:shared\n3:web:running:/zones/web::joyent:excl\n5:db:down:/zones/db::joyent:excl\n"}).
		On("/usr/bin/zonename", commandtest.Response{Stdout: "global\n"}).
		On("/usr/sbin/zonecfg -z web info attr", commandtest.Response{Stdout: "attr:\n\tname: owner\n\ttype: string\n\tvalue: ops\n"}).
		On("/usr/bin/svcprop -p restarter/state "+multiUser, commandtest.Response{Stdout: "online\n"}).
		On("/usr/bin/svcprop -p restarter/state -z web "+multiUser, commandtest.Response{Stdout: "online\n"}).
		On("/usr/bin/svcprop -p restarter/state -z web "+ssh, commandtest.Response{Stdout: "maintenance\n"})

	m := metrics.New()
	reg := zone.NewRegistry(runner, zone.WithPlatformCheck(func() bool { return true }))
	client, err := query.New(context.Background(), query.Options{Registry: reg, Runner: runner, Metrics: m})
	require.NoError(t, err)

	return NewServer(Options{
		Addr:     "127.0.0.1:0",
		Source:   client,
		Metrics:  m,
		Services: []string{multiUser},
		Logger:   zap.NewNop(),
	}), m, runner
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestRoutes(t *testing.T) {
	s, _, _ := testServer(t)
	h := s.Routes()

	t.Run("healthz", func(t *testing.T) {
		code, body := get(t, h, "/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, 3.0, body["zones"])
	})

	t.Run("list zones", func(t *testing.T) {
		code, body := get(t, h, "/zones")
		assert.Equal(t, http.StatusOK, code)
		zones := body["zones"].([]any)
		require.Len(t, zones, 3)
		assert.Equal(t, "global", zones[0].(map[string]any)["name"])
	})

	t.Run("zone by name and id", func(t *testing.T) {
		code, body := get(t, h, "/zones/web")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 3.0, body["id"])

		code, body = get(t, h, "/zones/5")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "db", body["name"])

		code, body = get(t, h, "/zones/@web")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 3.0, body["id"])
	})

	t.Run("unknown zone", func(t *testing.T) {
		code, body := get(t, h, "/zones/nope")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "zone_not_found", body["kind"])
	})

	t.Run("negative id is an unknown name", func(t *testing.T) {
		code, body := get(t, h, "/zones/-4")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "zone_not_found", body["kind"])
	})

	t.Run("empty explicit name", func(t *testing.T) {
		code, body := get(t, h, "/zones/@")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "validation", body["kind"])
	})

	t.Run("attributes", func(t *testing.T) {
		code, body := get(t, h, "/zones/web/attributes")
		assert.Equal(t, http.StatusOK, code)
		attrs := body["attributes"].([]any)
		require.Len(t, attrs, 1)
		assert.Equal(t, map[string]any{"name": "owner", "type": "string", "value": "ops"}, attrs[0])
	})

	t.Run("attributes query failure", func(t *testing.T) {
		code, body := get(t, h, "/zones/db/attributes")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "error", body["kind"])
	})

	t.Run("services from query", func(t *testing.T) {
		code, body := get(t, h, "/zones/web/services?fmri="+ssh+"&fmri="+multiUser)
		assert.Equal(t, http.StatusOK, code)
		services := body["services"].([]any)
		require.Len(t, services, 2)
		assert.Equal(t, "maintenance", services[0].(map[string]any)["state"])
		assert.Equal(t, "online", services[1].(map[string]any)["state"])
	})

	t.Run("services default to watched list", func(t *testing.T) {
		code, body := get(t, h, "/zones/global/services")
		assert.Equal(t, http.StatusOK, code)
		services := body["services"].([]any)
		require.Len(t, services, 1)
		assert.Equal(t, multiUser, services[0].(map[string]any)["fmri"])
		assert.Equal(t, "ok", services[0].(map[string]any)["kind"])
	})

	t.Run("service errors stay per entry", func(t *testing.T) {
		code, body := get(t, h, "/zones/web/services?fmri=svc:/site/unknown:default")
		assert.Equal(t, http.StatusOK, code)
		entry := body["services"].([]any)[0].(map[string]any)
		assert.Equal(t, "service_query", entry["kind"])
		assert.NotEmpty(t, entry["error"])
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "zutil_zones")
	})
}

func TestCollect(t *testing.T) {
	s, m, _ := testServer(t)

	s.Collect(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceState.WithLabelValues("global", multiUser, "online")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceState.WithLabelValues("web", multiUser, "online")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Queries.WithLabelValues("refresh", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Zones.WithLabelValues("down")))
}

func TestServiceSeriesFollowCollection(t *testing.T) {
	s, m, runner := testServer(t)
	h := s.Routes()

	code, _ := get(t, h, "/zones/web/services?fmri="+ssh)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, testutil.CollectAndCount(m.ServiceState), "ad hoc queries must not create state series")

	s.Collect(context.Background())
	assert.Equal(t, 2*len(smf.States), testutil.CollectAndCount(m.ServiceState))

	// web halts; its series must go away on the next collection.
	runner.On("/usr/sbin/zoneadm list -cp", commandtest.Response{Stdout: "0:global:running:/::ipkg:shared\n5:db:down:/zones/db::joyent:excl\n"})
	s.Collect(context.Background())
	assert.Equal(t, len(smf.States), testutil.CollectAndCount(m.ServiceState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceState.WithLabelValues("global", multiUser, "online")))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s, _, _ := testServer(t)
	s.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{"validation", http.StatusBadRequest},
		{"zone_not_found", http.StatusNotFound},
		{"attribute_not_found", http.StatusNotFound},
		{"service_not_found", http.StatusNotFound},
		{"timeout", http.StatusGatewayTimeout},
		{"registry_unavailable", http.StatusServiceUnavailable},
		{"config_parse", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.kind))
		})
	}
}
