package httpadapter_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/httpadapter"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func serve(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthzReturns200(t *testing.T) {
	srv := httpadapter.NewServer(":0", discardLogger(), &mockReadiness{err: errors.New("not yet")})
	assert.Equal(t, http.StatusOK, serve(t, srv, "/healthz").Code)
}

func TestReadyz(t *testing.T) {
	dbDown := httpadapter.CheckerFunc(func(context.Context) error { return errors.New("db down") })
	dbUp := httpadapter.CheckerFunc(func(context.Context) error { return nil })

	tests := []struct {
		name     string
		checkers []sharedobs.ReadinessChecker
		want     int
	}{
		{"all ready", []sharedobs.ReadinessChecker{&mockReadiness{}, dbUp}, http.StatusOK},
		{"no cycle yet", []sharedobs.ReadinessChecker{&mockReadiness{err: errors.New("no poll cycle has completed yet")}, dbUp}, http.StatusServiceUnavailable},
		{"database unreachable", []sharedobs.ReadinessChecker{&mockReadiness{}, dbDown}, http.StatusServiceUnavailable},
		{"nil checker func", []sharedobs.ReadinessChecker{httpadapter.CheckerFunc(nil)}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httpadapter.NewServer(":0", discardLogger(), tt.checkers...)
			assert.Equal(t, tt.want, serve(t, srv, "/readyz").Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httpadapter.NewServer(":0", discardLogger())
	rec := serve(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownMethodRejected(t *testing.T) {
	srv := httpadapter.NewServer(":0", discardLogger())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
