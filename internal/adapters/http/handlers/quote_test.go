package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-ingest/internal/adapters/decoders"
	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-ingest/internal/app"
	"github.com/jsamuelsen/quote-ingest/internal/mocks"
)

type quoteFixture struct {
	dir       string
	extractor *mocks.MockTextExtractor
	service   *app.QuoteService
	router    *gin.Engine
}

func newQuoteFixture(t *testing.T, files map[string]string) *quoteFixture {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	extractor := mocks.NewMockTextExtractor(t)

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Registry: app.NewRegistry(decoders.Default(extractor), app.RegistryConfig{Workers: 2, Logger: logger}),
		DataDir:  dir,
		Logger:   logger,
	})

	router := gin.New()
	NewQuoteHandler(service).RegisterRoutes(router.Group("/api/v1"))

	return &quoteFixture{dir: dir, extractor: extractor, service: service, router: router}
}

func (f *quoteFixture) load(t *testing.T, paths ...string) {
	t.Helper()

	_, err := f.service.Load(context.Background(), paths)
	require.NoError(t, err)
}

func (f *quoteFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

const dogQuotesTXT = "Chase the mailman - Skittle\nBe loyal - Rex\nSit - Fido\n"

func TestQuoteHandler_ListQuotes_Empty(t *testing.T) {
	f := newQuoteFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/quotes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.QuoteListResponse](t, w)
	assert.Empty(t, resp.Items)
	assert.NotNil(t, resp.Items)
	assert.Equal(t, 0, resp.Total)
	assert.False(t, resp.HasMore)
	assert.Equal(t, uint64(0), resp.Generation)
}

func TestQuoteHandler_ListQuotes_Paging(t *testing.T) {
	f := newQuoteFixture(t, map[string]string{"a.txt": dogQuotesTXT})
	f.load(t, "a.txt")

	w := f.do(t, http.MethodGet, "/api/v1/quotes?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	first := decode[dto.QuoteListResponse](t, w)
	assert.Equal(t, []dto.QuoteResponse{
		{Body: "Chase the mailman", Author: "Skittle"},
		{Body: "Be loyal", Author: "Rex"},
	}, first.Items)
	assert.Equal(t, 3, first.Total)
	assert.True(t, first.HasMore)
	assert.Equal(t, uint64(1), first.Generation)
	require.NotEmpty(t, first.NextCursor)

	w = f.do(t, http.MethodGet, "/api/v1/quotes?limit=2&cursor="+first.NextCursor, nil)
	require.Equal(t, http.StatusOK, w.Code)

	second := decode[dto.QuoteListResponse](t, w)
	assert.Equal(t, []dto.QuoteResponse{{Body: "Sit", Author: "Fido"}}, second.Items)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextCursor)
}

func TestQuoteHandler_ListQuotes_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "limit above maximum",
			query:      "?limit=500",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
		},
		{
			name:       "limit not a number",
			query:      "?limit=ten",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeBadRequest,
		},
		{
			name:       "garbage cursor",
			query:      "?cursor=not-a-cursor",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeBadRequest,
		},
		{
			name:       "cursor from another generation",
			query:      "?cursor=" + dto.EncodeCursor(dto.Cursor{Offset: 1, Generation: 9}),
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrorCodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, map[string]string{"a.txt": dogQuotesTXT})
			f.load(t, "a.txt")

			w := f.do(t, http.MethodGet, "/api/v1/quotes"+tt.query, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode[dto.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestQuoteHandler_ListQuotes_CursorGoesStaleOnPublish(t *testing.T) {
	f := newQuoteFixture(t, map[string]string{"a.txt": dogQuotesTXT})
	f.load(t, "a.txt")

	first := decode[dto.QuoteListResponse](t, f.do(t, http.MethodGet, "/api/v1/quotes?limit=1", nil))
	require.NotEmpty(t, first.NextCursor)

	f.load(t, "a.txt")

	w := f.do(t, http.MethodGet, "/api/v1/quotes?cursor="+first.NextCursor, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestQuoteHandler_GetRandomQuote(t *testing.T) {
	f := newQuoteFixture(t, map[string]string{"a.txt": dogQuotesTXT})

	w := f.do(t, http.MethodGet, "/api/v1/quotes/random", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeNotFound, decode[dto.ErrorResponse](t, w).Error.Code)

	f.load(t, "a.txt")

	w = f.do(t, http.MethodGet, "/api/v1/quotes/random", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, []dto.QuoteResponse{
		{Body: "Chase the mailman", Author: "Skittle"},
		{Body: "Be loyal", Author: "Rex"},
		{Body: "Sit", Author: "Fido"},
	}, decode[dto.QuoteResponse](t, w))
}

func TestQuoteHandler_ListDiagnostics(t *testing.T) {
	f := newQuoteFixture(t, map[string]string{
		"a.txt": "Chase the mailman - Skittle\nno separator here\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "DogQuotes"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "DogQuotes", "c.doc"), nil, 0o600))

	f.load(t, "a.txt", "DogQuotes/c.doc")

	w := f.do(t, http.MethodGet, "/api/v1/ingest/diagnostics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.DiagnosticsResponse](t, w)
	assert.Equal(t, uint64(1), resp.Generation)
	require.Len(t, resp.Diagnostics, 2)

	assert.Equal(t, "a.txt", resp.Diagnostics[0].Path)
	assert.Equal(t, "malformed_line", resp.Diagnostics[0].Kind)
	assert.Equal(t, 2, resp.Diagnostics[0].Line)

	assert.Equal(t, filepath.Join("DogQuotes", "c.doc"), resp.Diagnostics[1].Path)
	assert.Equal(t, "unsupported_format", resp.Diagnostics[1].Kind)
}

func TestQuoteHandler_Ingest(t *testing.T) {
	files := map[string]string{
		"a.txt":   dogQuotesTXT,
		"b.csv":   "body,author\nWoof,Rex\n",
		"bad.csv": "quote,who\nWoof,Rex\n",
		"c.pdf":   "%PDF-1.4",
	}

	tests := []struct {
		name          string
		body          any
		setup         func(*quoteFixture)
		wantStatus    int
		wantCode      string
		wantDetails   map[string]string
		wantPublished bool
		wantQuotes    int
		wantGen       uint64
	}{
		{
			name:       "dry run",
			body:       dto.IngestRequest{Paths: []string{"a.txt", "b.csv"}},
			wantStatus: http.StatusOK,
			wantQuotes: 4,
			wantGen:    0,
		},
		{
			name:          "publish",
			body:          dto.IngestRequest{Paths: []string{"a.txt", "b.csv"}, Publish: true},
			wantStatus:    http.StatusOK,
			wantPublished: true,
			wantQuotes:    4,
			wantGen:       1,
		},
		{
			name: "pdf through the extractor",
			body: dto.IngestRequest{Paths: []string{"c.pdf"}, Publish: true},
			setup: func(f *quoteFixture) {
				f.extractor.EXPECT().Extract(mock.Anything, filepath.Join(f.dir, "c.pdf")).
					Return([]byte("Bark at the door - Rex\n\f"), nil)
			},
			wantStatus:    http.StatusOK,
			wantPublished: true,
			wantQuotes:    1,
			wantGen:       1,
		},
		{
			name:        "missing paths",
			body:        map[string]any{"publish": true},
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrorCodeValidation,
			wantDetails: map[string]string{"paths": "this field is required"},
		},
		{
			name:       "escaping path",
			body:       dto.IngestRequest{Paths: []string{"a.txt", "../etc/passwd"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
			wantDetails: map[string]string{
				"paths[1]": "must be a relative path inside the data directory",
			},
		},
		{
			name:       "malformed json",
			body:       `{"paths": [`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeBadRequest,
		},
		{
			name:       "schema mismatch",
			body:       dto.IngestRequest{Paths: []string{"a.txt", "bad.csv"}, Publish: true},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrorCodeSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, files)
			if tt.setup != nil {
				tt.setup(f)
			}

			w := f.do(t, http.MethodPost, "/api/v1/ingest", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				resp := decode[dto.ErrorResponse](t, w)
				assert.Equal(t, tt.wantCode, resp.Error.Code)

				if tt.wantDetails != nil {
					assert.Equal(t, tt.wantDetails, resp.Error.Details)
				}

				assert.Equal(t, uint64(0), f.service.Catalog().Generation())

				return
			}

			resp := decode[dto.IngestResponse](t, w)
			assert.Equal(t, tt.wantPublished, resp.Published)
			assert.Equal(t, tt.wantQuotes, resp.Quotes)
			assert.Equal(t, tt.wantGen, resp.Generation)
			assert.Equal(t, tt.wantGen, f.service.Catalog().Generation())
		})
	}
}

func TestQuoteHandler_Ingest_ReportsSourcesInRequestOrder(t *testing.T) {
	f := newQuoteFixture(t, map[string]string{
		"a.txt": "Chase the mailman - Skittle\nno separator here\n",
		"b.csv": "body,author\nWoof,Rex\n",
	})

	w := f.do(t, http.MethodPost, "/api/v1/ingest", dto.IngestRequest{
		Paths: []string{"b.csv", "missing.txt", "a.txt", "d.doc"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.IngestResponse](t, w)
	require.Len(t, resp.Sources, 4)

	assert.Equal(t, "b.csv", resp.Sources[0].Path)
	assert.Equal(t, 1, resp.Sources[0].Quotes)
	assert.Empty(t, resp.Sources[0].Diagnostics)

	assert.Equal(t, "missing.txt", resp.Sources[1].Path)
	require.Len(t, resp.Sources[1].Diagnostics, 1)
	assert.Equal(t, "source_unavailable", resp.Sources[1].Diagnostics[0].Kind)
	assert.Equal(t, "missing.txt", resp.Sources[1].Diagnostics[0].Path)

	assert.Equal(t, "a.txt", resp.Sources[2].Path)
	assert.Equal(t, 1, resp.Sources[2].Quotes)
	require.Len(t, resp.Sources[2].Diagnostics, 1)
	assert.Equal(t, 2, resp.Sources[2].Diagnostics[0].Line)

	assert.Equal(t, "d.doc", resp.Sources[3].Path)
	require.Len(t, resp.Sources[3].Diagnostics, 1)
	assert.Equal(t, "unsupported_format", resp.Sources[3].Diagnostics[0].Kind)

	assert.Equal(t, 2, resp.Quotes)
}
