package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/carepulse/carepulse/pkg/types"
	"github.com/carepulse/carepulse/server/internal/config"
	"github.com/carepulse/carepulse/server/internal/ws"
)

func startServer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return lis.Addr().String()
}

func testBatch() types.Batch {
	return types.Batch{
		Source: "e2e",
		Patients: []types.Row{
			{"patient_id": "P1", "icu_required_flag": 1},
			{"patient_id": "P2"},
		},
		Hospital: types.Row{
			"hospital_id":       "H-E2E",
			"total_beds":        100,
			"occupied_beds":     40,
			"icu_beds_total":    10,
			"icu_beds_occupied": 2,
			"er_capacity":       20,
			"er_occupied":       5,
		},
	}
}

func post(t *testing.T, url, key string, b types.Batch) *http.Response {
	t.Helper()
	body, err := json.Marshal(b)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServe_AnalyzeAndStream(t *testing.T) {
	cfg := config.Default()
	cfg.Server.StreamInterval = time.Hour
	addr := startServer(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Nothing stored yet.
	var first ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	require.Nil(t, first.Data)

	resp := post(t, "http://"+addr+"/api/v1/analyze", "", testBatch())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var run types.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	require.Equal(t, "H-E2E", run.Analysis.Hospital.HospitalID)

	// The new run is published without waiting for the tick.
	var pushed ws.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&pushed))
	require.NotNil(t, pushed.Data)
	require.Equal(t, run.ID, pushed.Data.ID)

	health, err := http.Get("http://" + addr + "/api/v1/health")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServe_APIKey(t *testing.T) {
	t.Setenv("TEST_CAREPULSE_KEY", "s3cret")
	cfg := config.Default()
	cfg.Server.Auth = config.AuthConfig{Mode: "apikey", KeyEnv: "TEST_CAREPULSE_KEY"}
	addr := startServer(t, cfg)

	resp := post(t, "http://"+addr+"/api/v1/analyze", "", testBatch())
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post(t, "http://"+addr+"/api/v1/analyze", "s3cret", testBatch())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestServe_RejectsBadAlertRule(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Alerts.Rules = []config.AlertRule{{Name: "bad", Condition: "beds > 1"}}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	err = serve(context.Background(), cfg, lis)
	require.ErrorContains(t, err, `rule "bad"`)
}

func TestRoot_LoadsConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(p, []byte("server:\n  http_port: 9999\n"), 0o600))

	g := &globals{configPath: p}
	require.NoError(t, g.load())
	require.Equal(t, 9999, g.cfg.Server.HTTPPort)

	g = &globals{configPath: filepath.Join(dir, "missing.yaml")}
	require.Error(t, g.load())
}

func TestVersion(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	require.Equal(t, "carepulse-server dev", strings.TrimSpace(out.String()))
}
