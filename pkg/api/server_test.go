package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/StarkIndexor/internal/common"
	"github.com/goran-ethernal/StarkIndexor/internal/db"
	"github.com/goran-ethernal/StarkIndexor/internal/deployment"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/query"
	"github.com/goran-ethernal/StarkIndexor/internal/realtime"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
	"github.com/goran-ethernal/StarkIndexor/internal/store/migrations"
	"github.com/goran-ethernal/StarkIndexor/pkg/config"
)

func newTestServer(t *testing.T, cfg *config.APIConfig) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "server.db")
	require.NoError(t, migrations.RunMigrations(dbPath))

	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := logger.NewNopLogger()
	service := query.NewService(
		store.NewEventStore(database, log),
		realtime.NewFabric(64, log),
		deployment.NewGateway(database, log),
		&fakeChainReader{latest: 100},
		log,
	)

	return NewServer(cfg, service, log)
}

func serverConfig() *config.APIConfig {
	cfg := &config.APIConfig{
		Enabled:       true,
		ListenAddress: "127.0.0.1:0",
		ReadTimeout:   common.NewDuration(5 * time.Second),
		WriteTimeout:  common.NewDuration(5 * time.Second),
		IdleTimeout:   common.NewDuration(30 * time.Second),
	}
	return cfg
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, serverConfig())

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"events", http.MethodGet, "/api/v1/events", http.StatusOK},
		{"event stats", http.MethodGet, "/api/v1/events/stats", http.StatusOK},
		{"sync status", http.MethodGet, "/api/v1/sync-status", http.StatusOK},
		{"deployments", http.MethodGet, "/api/v1/deployments", http.StatusOK},
		{"missing deployment", http.MethodGet, "/api/v1/deployments/none", http.StatusNotFound},
		{"missing deployment events", http.MethodGet, "/api/v1/deployments/none/events", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
		{"wrong method", http.MethodPost, "/api/v1/events", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			srv.server.Handler.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestServerCORSEnabled(t *testing.T) {
	t.Parallel()

	cfg := serverConfig()
	cfg.CORS.Enabled = true
	cfg.CORS.AllowedOrigins = []string{"*"}

	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()

	srv.server.Handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerStartDisabled(t *testing.T) {
	t.Parallel()

	cfg := serverConfig()
	cfg.Enabled = false

	srv := newTestServer(t, cfg)
	require.NoError(t, srv.Start(context.Background()))
}

func TestServerGracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, serverConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
