package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console-api/internal/roster"
	"github.com/noah-isme/student-console-api/pkg/export"
)

func newExportRouter(store *fakeStore) (*gin.Engine, *roster.Registry) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	rosters := roster.NewRegistry(store, logger)
	h := NewExportHandler(rosters, export.NewCSVExporter(), export.NewPDFExporter(), logger)

	r := gin.New()
	r.GET("/export", asOperator("op-1"), h.Export)
	return r, rosters
}

func TestExportCSV(t *testing.T) {
	store := newFakeStore()
	store.seed(validRecord("doc-a"), validRecord("doc-b"))
	r, _ := newExportRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?format=csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3, "header plus one row per record")
	assert.True(t, strings.HasPrefix(lines[0], "id,admissionDate"))
	assert.Contains(t, lines[1], "Meera Nair")
}

func TestExportHonorsSelection(t *testing.T) {
	store := newFakeStore()
	store.seed(validRecord("doc-a"), validRecord("doc-b"))
	r, rosters := newExportRouter(store)

	o := rosters.For("op-1")
	require.NoError(t, o.Load(context.Background()))
	o.ToggleSelect("doc-b")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?format=csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2, "only the selected record exports")
	assert.Contains(t, lines[1], "doc-b")
}

func TestExportPDF(t *testing.T) {
	store := newFakeStore()
	store.seed(validRecord("doc-a"))
	r, _ := newExportRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?format=pdf", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestExportUnknownFormat(t *testing.T) {
	store := newFakeStore()
	store.seed(validRecord("doc-a"))
	r, _ := newExportRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?format=xlsx", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
