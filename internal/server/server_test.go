package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/internal/service/generator"
	"github.com/kapu/gamegen-go/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeGenerator) Generate(ctx context.Context, urls []string) []domain.GameRecord {
	return f.GenerateWithProgress(ctx, urls, nil)
}

func (f *fakeGenerator) GenerateWithProgress(_ context.Context, urls []string, onProgress generator.ProgressFunc) []domain.GameRecord {
	f.mu.Lock()
	f.calls = append(f.calls, urls)
	f.mu.Unlock()

	records := make([]domain.GameRecord, len(urls))
	for i, url := range urls {
		rec := domain.GameRecord{
			Name:         fmt.Sprintf("Game %d", i),
			Slug:         fmt.Sprintf("game-%d", i),
			IframeURL:    url,
			Excerpt:      "<p>Fun & fast.</p>",
			Article:      "<h2>About</h2>",
			RelatedGames: []string{},
		}
		if strings.Contains(url, "fail") {
			rec = domain.NewPlaceholderRecord(url, errors.New("boom"), time.UnixMilli(1))
		}
		records[i] = rec
		if onProgress != nil {
			onProgress(domain.ProgressEvent{BatchID: "b1", Index: i, Total: len(urls), URL: url, Failed: rec.IsPlaceholder(), Record: rec})
		}
	}
	return records
}

type fakeCircuit struct{}

func (fakeCircuit) GetCircuitStatus() util.CircuitBreakerStatus {
	return util.CircuitBreakerStatus{State: util.CircuitStateOpen}
}

type fakeHistory struct {
	batches map[string][]domain.GameRecord
}

func (h *fakeHistory) RecentBatches(_ context.Context, limit int) ([]string, error) {
	ids := []string{"b2", "b1"}
	if limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

func (h *fakeHistory) LoadBatch(_ context.Context, batchID string) ([]domain.GameRecord, error) {
	return h.batches[batchID], nil
}

func newTestServer(gen BatchGenerator, opts ...Option) *Server {
	return New(":0", gen, zap.NewNop(), opts...)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeGenerator{}, WithCircuit(fakeCircuit{}))

	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","circuit":"OPEN"}`, rec.Body.String())
}

func TestGenerateFromText(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestServer(gen)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/games",
		`{"urls":"https://a.com/g1\nhttps://a.com/g1\n  \nhttps://a.com/g2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []domain.GameRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.com/g1", records[0].IframeURL)
	assert.Equal(t, "https://a.com/g2", records[1].IframeURL)
	assert.Contains(t, rec.Body.String(), "<p>Fun & fast.</p>")

	require.Len(t, gen.calls, 1)
	assert.Equal(t, []string{"https://a.com/g1", "https://a.com/g2"}, gen.calls[0])
}

func TestGenerateFromArray(t *testing.T) {
	s := newTestServer(&fakeGenerator{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/games",
		`{"urls":[" https://a.com/x ","https://a.com/fail","https://a.com/x"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []domain.GameRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.com/x", records[0].IframeURL)
	assert.Equal(t, "Failed to process URL", records[1].Name)
	assert.Equal(t, []string{}, records[1].RelatedGames)
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestServer(gen)

	for _, body := range []string{`{"urls":""}`, `{"urls":["", "  "]}`, `{}`} {
		rec := doJSON(t, s.Handler(), http.MethodPost, "/api/games", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Please enter at least one URL.","field":"urls"}`, rec.Body.String(), body)
	}
	assert.Empty(t, gen.calls)
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	s := newTestServer(&fakeGenerator{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/games", `{"urls": 42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")

	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/games", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIframeDownload(t *testing.T) {
	s := newTestServer(&fakeGenerator{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/iframe", `{"url":"https://ex.com/games/moto-x3m.html"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="moto-x3m.html"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<title>Moto X3M</title>")
	assert.Contains(t, rec.Body.String(), `<iframe src="https://ex.com/games/moto-x3m.html" allowfullscreen></iframe>`)
}

func TestIframeRejectsInvalidURL(t *testing.T) {
	s := newTestServer(&fakeGenerator{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/iframe", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please enter a valid URL.","field":"url"}`, rec.Body.String())
}

func TestBatchesWithoutHistory(t *testing.T) {
	s := newTestServer(&fakeGenerator{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/batches", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchesWithHistory(t *testing.T) {
	history := &fakeHistory{batches: map[string][]domain.GameRecord{
		"b1": {{Name: "A", IframeURL: "https://a.com/1", RelatedGames: []string{}}},
	}}
	s := newTestServer(&fakeGenerator{}, WithHistory(history))

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/batches?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"batches":["b2"]}`, rec.Body.String())

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/batches?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/batches/b1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"GAME_NAME":"A"`)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/batches/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func dialStream(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/games"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGenerateStream(t *testing.T) {
	s := newTestServer(&fakeGenerator{})
	conn := dialStream(t, s)

	require.NoError(t, conn.WriteJSON(map[string]string{"urls": "https://a.com/1\nhttps://a.com/fail"}))

	var progress []streamMessage
	var done *streamMessage
	for done == nil {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg streamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case streamTypeProgress:
			progress = append(progress, msg)
		case streamTypeDone:
			done = &msg
		default:
			t.Fatalf("unexpected message type %q", msg.Type)
		}
	}

	require.Len(t, progress, 2)
	for _, msg := range progress {
		require.NotNil(t, msg.Event)
		assert.Equal(t, 2, msg.Event.Total)
	}
	require.Len(t, done.Records, 2)
	assert.Equal(t, "https://a.com/1", done.Records[0].IframeURL)
	assert.True(t, done.Records[1].IsPlaceholder())
}

func TestGenerateStreamValidationError(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestServer(gen)
	conn := dialStream(t, s)

	require.NoError(t, conn.WriteJSON(map[string]string{"urls": "\n \n"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, streamTypeError, msg.Type)
	assert.Equal(t, "Please enter at least one URL.", msg.Message)
	assert.Empty(t, gen.calls)
}
