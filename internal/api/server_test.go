package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/batch"
	"github.com/laborview/jobspider/internal/clock/system"
	"github.com/laborview/jobspider/internal/spider"
)

type staticResolver struct{}

func (staticResolver) Resolve(string) string { return "010000" }

type fakeSession struct{ total int }

func (s *fakeSession) Prime(context.Context, string) error { return nil }

func (s *fakeSession) Search(_ context.Context, keyword string, page int, _ string) ([]byte, error) {
	if page > 1 {
		return []byte(`{"resultbody":{"job":{"items":[]}}}`), nil
	}
	items := make([]string, 0, s.total)
	for i := 0; i < s.total; i++ {
		items = append(items, fmt.Sprintf(`{"jobName":"%s-%d"}`, keyword, i))
	}
	body := `{"resultbody":{"job":{"items":[` + strings.Join(items, ",") + `]}}}`
	return []byte(body), nil
}

func (s *fakeSession) Close() error { return nil }

type fakeFactory struct{ total int }

func (f *fakeFactory) New(context.Context) (spider.Session, error) {
	return &fakeSession{total: f.total}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	runner := batch.NewRunner(batch.Options{
		CSVPath:     filepath.Join(dir, "qcwy.csv"),
		HTMLPath:    filepath.Join(dir, "data.html"),
		IdleTimeout: 2 * time.Second,
		Stagger:     time.Millisecond,
	}, &fakeFactory{total: 5}, staticResolver{}, zap.NewNop())
	return NewServer(runner, system.New(), zap.NewNop())
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSubmitCrawlRunsBatch(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	body := `{"cities":["北京"],"jobs":["软件"],"limit":5,"concurrent":false,"timer":{"enable":false}}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawls", strings.NewReader(body)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted["id"])

	require.Eventually(t, func() bool {
		status := getStatus(t, s)
		running, _ := status["running"].(bool)
		return !running && status["last_summary"] != nil
	}, 5*time.Second, 20*time.Millisecond)

	status := getStatus(t, s)
	summary := status["last_summary"].(map[string]any)
	require.EqualValues(t, 5, summary["rows"])
	require.EqualValues(t, 1, summary["tasks"])
	require.Equal(t, accepted["id"], status["last_id"])
}

func TestSubmitCrawlRejectsBadBody(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawls", strings.NewReader("{not json")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitCrawlRejectsMidnightCrossingTimer(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	body := `{"timer":{"enable":true,"begin_hour":22,"end_hour":2,"interval_minutes":60}}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawls", strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitCrawlConflictsWhileRunning(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/crawls", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func getStatus(t *testing.T, s *Server) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return status
}
