package pagehint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const samplePage = `<!DOCTYPE html>
<html><head>
  <title>
     Moto X3M   Winter | Free Games
  </title>
  <meta name="description" content="Ride through snowy tracks.">
  <meta property="og:image" content="https://cdn.example/moto.png">
</head><body><canvas></canvas></body></html>`

func TestInspectExtractsHints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	hints := NewInspector(srv.Client(), zap.NewNop()).Inspect(context.Background(), srv.URL)

	assert.Equal(t, "Moto X3M Winter | Free Games", hints.Title)
	assert.Equal(t, "Ride through snowy tracks.", hints.Description)
	assert.Equal(t, "https://cdn.example/moto.png", hints.Image)
	assert.False(t, hints.Empty())
}

func TestInspectPrefersOpenGraph(t *testing.T) {
	page := `<html><head><title>Fallback</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG Desc">
<meta name="description" content="Plain"></head></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	hints := NewInspector(srv.Client(), zap.NewNop()).Inspect(context.Background(), srv.URL)
	assert.Equal(t, "OG Title", hints.Title)
	assert.Equal(t, "OG Desc", hints.Description)
}

func TestInspectTruncatesLongText(t *testing.T) {
	long := strings.Repeat("x", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>" + long + "</title></head></html>"))
	}))
	defer srv.Close()

	hints := NewInspector(srv.Client(), zap.NewNop()).Inspect(context.Background(), srv.URL)
	assert.Equal(t, 303, len(hints.Title))
}

func TestInspectFailuresYieldEmptyHints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	inspector := NewInspector(srv.Client(), zap.NewNop())
	assert.True(t, inspector.Inspect(context.Background(), srv.URL).Empty())
	assert.True(t, inspector.Inspect(context.Background(), "::not a url").Empty())
}

func TestInspectResolvesRelativeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/thumbs/moto.png"></head></html>`))
	}))
	defer srv.Close()

	hints := NewInspector(srv.Client(), zap.NewNop()).Inspect(context.Background(), srv.URL+"/games/moto.html")
	assert.Equal(t, srv.URL+"/thumbs/moto.png", hints.Image)
}

func TestInspectDropsNonHTTPImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>T</title><meta property="og:image" content="javascript:alert(1)"></head></html>`))
	}))
	defer srv.Close()

	hints := NewInspector(srv.Client(), zap.NewNop()).Inspect(context.Background(), srv.URL)
	assert.Equal(t, "T", hints.Title)
	assert.Empty(t, hints.Image)
}

func TestDefaultClientRefusesLoopback(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	hints := NewInspector(nil, zap.NewNop()).Inspect(context.Background(), srv.URL)
	assert.True(t, hints.Empty())
	assert.Zero(t, hits.Load())
}

func TestIsPublic(t *testing.T) {
	for _, tc := range []struct {
		addr   string
		public bool
	}{
		{"8.8.8.8", true},
		{"2606:4700:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"192.168.0.10", false},
		{"172.16.5.5", false},
		{"169.254.169.254", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::ffff:127.0.0.1", false},
		{"fd00::1", false},
	} {
		assert.Equal(t, tc.public, isPublic(netip.MustParseAddr(tc.addr)), tc.addr)
	}
}
