package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/RoqueChristian/inventario/internal/domain/models"
	"github.com/RoqueChristian/inventario/internal/server/handlers"
	"github.com/RoqueChristian/inventario/internal/server/router"
	"github.com/RoqueChristian/inventario/internal/service/export"
)

type fakeService struct {
	selections []string
	err        error
}

func (f *fakeService) Dashboard(_ context.Context, selection string) (models.Dashboard, error) {
	f.selections = append(f.selections, selection)
	if f.err != nil {
		return models.Dashboard{}, f.err
	}
	if selection == "" {
		selection = "all"
	}
	return models.Dashboard{
		Selection: selection,
		Branches:  []string{"all", "1", "2"},
		Pending:   &models.PendingSummary{TotalLabel: "R$ 1.500,50", OpenNotes: 2, ActiveBranches: 2},
		TopEntries: models.ProductRanking{Items: []models.RankedProduct{
			{Product: "Arroz", TotalLabel: "R$ 1.284,75"},
		}},
		TopExits: models.ProductRanking{NoData: true, Placeholder: models.NoDataPlaceholder},
		Entries: models.DetailTable{
			Columns: []string{"codfilial", "vlr_entrada"},
			Rows:    [][]string{{"1", "R$ 1.234,50"}},
		},
		Warnings:    []string{"failed to load saida.csv: bad row"},
		GeneratedAt: time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeService) Branches(context.Context) ([]string, error) {
	return []string{"all", "1", "2"}, f.err
}

func (f *fakeService) Digest(_ context.Context, selection string) (string, error) {
	return "digest " + selection, f.err
}

type fakeCache struct {
	invalidated []string
	flushed     int
}

func (f *fakeCache) Invalidate(path string) int {
	f.invalidated = append(f.invalidated, path)
	return len(f.invalidated)
}

func (f *fakeCache) Flush() { f.flushed++ }

type fakeLister struct {
	limit int
	err   error
}

func (f *fakeLister) ListSnapshots(_ context.Context, limit int) ([]models.Snapshot, error) {
	f.limit = limit
	return []models.Snapshot{{ID: "a", Branch: "all"}}, f.err
}

type fakeSender struct {
	digests []string
	err     error
}

func (f *fakeSender) SendDigest(_ context.Context, digest string) error {
	f.digests = append(f.digests, digest)
	return f.err
}

func newEngine(t *testing.T, deps handlers.Dependencies) *gin.Engine {
	t.Helper()
	if deps.Exporter == nil {
		deps.Exporter = export.NewWorkbook()
	}
	engine, err := router.New(handlers.NewDashboardHandler(deps, nil), nil, nil)
	require.NoError(t, err)
	return engine
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	engine.ServeHTTP(rec, req)
	return rec
}

func TestDashboardJSON(t *testing.T) {
	svc := &fakeService{}
	engine := newEngine(t, handlers.Dependencies{Service: svc})

	rec := serve(engine, http.MethodGet, "/api/dashboard?filial=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1", body["selection"])
	assert.Equal(t, []string{"1"}, svc.selections)

	pending := body["pending"].(map[string]any)
	assert.Equal(t, "R$ 1.500,50", pending["total_label"])
	assert.Equal(t, true, body["top_exits"].(map[string]any)["no_data"])
}

func TestDashboardJSON_ServiceError(t *testing.T) {
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{err: context.Canceled}})

	rec := serve(engine, http.MethodGet, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPage(t *testing.T) {
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

	rec := serve(engine, http.MethodGet, "/?filial=2")
	require.Equal(t, http.StatusOK, rec.Code)

	html := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, html, `<option value="2" selected>2</option>`)
	assert.Contains(t, html, "R$ 1.500,50")
	assert.Contains(t, html, "Arroz")
	assert.Contains(t, html, models.NoDataPlaceholder)
	assert.Contains(t, html, "failed to load saida.csv: bad row")
	assert.Contains(t, html, "10/03/2024 20:00:00")
}

func TestBranches(t *testing.T) {
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

	rec := serve(engine, http.MethodGet, "/api/branches")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"branches":["all","1","2"]}`, rec.Body.String())
}

func TestExport(t *testing.T) {
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

	rec := serve(engine, http.MethodGet, "/api/export.xlsx?filial=1")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="inventario_1.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetEntries)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"codfilial", "vlr_entrada"}, {"1", "R$ 1.234,50"}}, rows)
}

func TestExport_MovementType(t *testing.T) {
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

	sheetRows := func(t *testing.T, target, sheet string) [][]string {
		t.Helper()
		rec := serve(engine, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code)
		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(sheet)
		require.NoError(t, err)
		return rows
	}

	assert.Len(t, sheetRows(t, "/api/export.xlsx?tipo=ENTRADA", export.SheetEntries), 2)
	assert.Empty(t, sheetRows(t, "/api/export.xlsx?tipo=saida", export.SheetEntries))

	rec := serve(engine, http.MethodGet, "/api/export.xlsx?tipo=estoque")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown movement type")
}

func TestSnapshots(t *testing.T) {
	t.Run("store_disabled", func(t *testing.T) {
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

		rec := serve(engine, http.MethodGet, "/api/snapshots")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"snapshots":[]}`, rec.Body.String())
	})

	t.Run("with_limit", func(t *testing.T) {
		lister := &fakeLister{}
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}, Snapshots: lister})

		rec := serve(engine, http.MethodGet, "/api/snapshots?limit=5")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, lister.limit)
		assert.Contains(t, rec.Body.String(), `"id":"a"`)
	})

	t.Run("invalid_limit", func(t *testing.T) {
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}, Snapshots: &fakeLister{}})

		rec := serve(engine, http.MethodGet, "/api/snapshots?limit=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store_error", func(t *testing.T) {
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}, Snapshots: &fakeLister{err: errors.New("timeout")}})

		rec := serve(engine, http.MethodGet, "/api/snapshots")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestInvalidateCache(t *testing.T) {
	cache := &fakeCache{}
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}, Cache: cache})

	rec := serve(engine, http.MethodPost, "/api/cache/invalidate?path=/data/inventario_entrada.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/data/inventario_entrada.csv"}, cache.invalidated)
	assert.JSONEq(t, `{"invalidated":"/data/inventario_entrada.csv","entries":1}`, rec.Body.String())
	assert.Zero(t, cache.flushed)

	rec = serve(engine, http.MethodPost, "/api/cache/invalidate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, cache.flushed)
	assert.JSONEq(t, `{"invalidated":"all"}`, rec.Body.String())
}

func TestDigest(t *testing.T) {
	engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

	rec := serve(engine, http.MethodGet, "/api/digest?filial=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "digest 2", rec.Body.String())
}

func TestSendDigest(t *testing.T) {
	t.Run("not_configured", func(t *testing.T) {
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}})

		rec := serve(engine, http.MethodPost, "/api/digest/send")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("sent", func(t *testing.T) {
		sender := &fakeSender{}
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}, Messaging: sender})

		rec := serve(engine, http.MethodPost, "/api/digest/send?filial=1")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []string{"digest 1"}, sender.digests)
	})

	t.Run("provider_error", func(t *testing.T) {
		engine := newEngine(t, handlers.Dependencies{Service: &fakeService{}, Messaging: &fakeSender{err: errors.New("401")}})

		rec := serve(engine, http.MethodPost, "/api/digest/send")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
