package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/internal/server"
	"github.com/kapu/gamegen-go/internal/service/generator"
	apperrors "github.com/kapu/gamegen-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadURLInputCombinesArgsAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(file, []byte("https://a.com/2\nhttps://a.com/3\n"), 0o644))

	raw, err := readURLInput(strings.NewReader("https://ignored.com"), file, []string{"https://a.com/1"})
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/1\nhttps://a.com/2\nhttps://a.com/3\n", raw)
}

func TestReadURLInputFallsBackToStdin(t *testing.T) {
	raw, err := readURLInput(strings.NewReader("https://a.com/1\nhttps://a.com/1"), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/1\nhttps://a.com/1", raw)
}

func TestReadURLInputMissingFile(t *testing.T) {
	_, err := readURLInput(strings.NewReader(""), filepath.Join(t.TempDir(), "nope.txt"), nil)
	assert.Error(t, err)
}

func TestGenerateRejectsEmptyInputBeforeLoadingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader("\n  \n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate"})

	err := cmd.Execute()
	require.Error(t, err)

	verr, ok := apperrors.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "Please enter at least one URL.", verr.Message)
}

func TestIframeCommandWritesPage(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"iframe", "https://ex.com/games/moto-x3m.html", "-d", dir})
	require.NoError(t, cmd.Execute())

	path := filepath.Join(dir, "moto-x3m.html")
	assert.Equal(t, path+"\n", out.String())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "<title>Moto X3M</title>")
}

func TestIframeCommandRejectsInvalidURL(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"iframe", "not a url", "-d", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please enter a valid URL.")
}

func TestWriteRecords(t *testing.T) {
	records := []domain.GameRecord{{Name: "A", Excerpt: "<p>a</p>", RelatedGames: []string{}}}

	var stdout bytes.Buffer
	require.NoError(t, writeRecords(&stdout, "", records))
	assert.True(t, strings.HasPrefix(stdout.String(), "[\n  {"))
	assert.Contains(t, stdout.String(), `"EXCERPT": "<p>a</p>"`)

	file := filepath.Join(t.TempDir(), "out.json")
	stdout.Reset()
	require.NoError(t, writeRecords(&stdout, file, records))
	assert.Equal(t, "Wrote 1 records to "+file+"\n", stdout.String())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"GAME_NAME": "A"`)
}

func TestCountFailed(t *testing.T) {
	records := []domain.GameRecord{
		{Name: "ok"},
		domain.NewPlaceholderRecord("https://a.com", nil, time.Unix(0, 0)),
	}
	assert.Equal(t, 1, countFailed(records))
}

type stubGenerator struct{}

func (g stubGenerator) Generate(ctx context.Context, urls []string) []domain.GameRecord {
	return g.GenerateWithProgress(ctx, urls, nil)
}

func (stubGenerator) GenerateWithProgress(_ context.Context, urls []string, onProgress generator.ProgressFunc) []domain.GameRecord {
	records := make([]domain.GameRecord, len(urls))
	for i, url := range urls {
		records[i] = domain.GameRecord{Name: "Stub", Slug: "stub", IframeURL: url, RelatedGames: []string{}}
		if onProgress != nil {
			onProgress(domain.ProgressEvent{Index: i, Total: len(urls), URL: url, Record: records[i]})
		}
	}
	return records
}

func TestGenerateAgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(server.New(":0", stubGenerator{}, zap.NewNop()).Handler())
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"generate", "--server", srv.URL, "https://a.com/1", "https://a.com/2", "https://a.com/1"})
	require.NoError(t, cmd.Execute())

	var records []domain.GameRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.com/1", records[0].IframeURL)
	assert.Equal(t, "https://a.com/2", records[1].IframeURL)
	assert.Contains(t, stderr.String(), "[2/2] ok https://a.com/2")
}

func TestGenerateAgainstServerWithoutStreaming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := server.New(":0", stubGenerator{}, zap.NewNop()).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws/games" {
			http.Error(w, "upgrades disabled", http.StatusForbidden)
			return
		}
		api.ServeHTTP(w, r)
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"generate", "--server", srv.URL, "https://a.com/1", "https://a.com/2"})
	require.NoError(t, cmd.Execute())

	var records []domain.GameRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.com/2", records[1].IframeURL)
	assert.Contains(t, stderr.String(), "streaming unavailable")
}

func TestGenerateAgainstUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "--server", srv.URL, "https://a.com/1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not reachable")
}
