package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/domain/models"
	"github.com/RoqueChristian/inventario/internal/service/export"
)

// branchParam is the query parameter carrying the branch selection.
const (
	branchParam = "filial"
	typeParam   = "tipo"
)

// DashboardService builds what the handlers render.
type DashboardService interface {
	Dashboard(ctx context.Context, selection string) (models.Dashboard, error)
	Branches(ctx context.Context) ([]string, error)
	Digest(ctx context.Context, selection string) (string, error)
}

// CacheInvalidator drops memoized tables.
type CacheInvalidator interface {
	Invalidate(path string) int
	Flush()
}

// DetailExporter renders dashboard detail tables as a spreadsheet.
type DetailExporter interface {
	WriteDetail(w io.Writer, d models.Dashboard) error
}

// SnapshotLister reads stored snapshots.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, limit int) ([]models.Snapshot, error)
}

// DigestSender delivers the text digest.
type DigestSender interface {
	SendDigest(ctx context.Context, digest string) error
}

// Dependencies groups the collaborators of DashboardHandler. Snapshots and
// Messaging are optional.
type Dependencies struct {
	Service   DashboardService
	Cache     CacheInvalidator
	Exporter  DetailExporter
	Snapshots SnapshotLister
	Messaging DigestSender
}

// DashboardHandler serves the dashboard page and its JSON API.
type DashboardHandler struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(deps Dependencies, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{deps: deps, logger: logger}
}

// Page renders the HTML dashboard.
func (h *DashboardHandler) Page(c *gin.Context) {
	d, err := h.deps.Service.Dashboard(c.Request.Context(), c.Query(branchParam))
	if err != nil {
		h.logger.Error("failed building dashboard", zap.Error(err))
		c.String(http.StatusInternalServerError, "dashboard unavailable")
		return
	}
	c.HTML(http.StatusOK, dashboardTemplate, d)
}

// Dashboard returns the dashboard as JSON.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	d, err := h.deps.Service.Dashboard(c.Request.Context(), c.Query(branchParam))
	if err != nil {
		h.logger.Error("failed building dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard unavailable"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// Branches lists the selectable branches.
func (h *DashboardHandler) Branches(c *gin.Context) {
	branches, err := h.deps.Service.Branches(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing branches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "branches unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// Digest returns the plain text digest.
func (h *DashboardHandler) Digest(c *gin.Context) {
	digest, err := h.deps.Service.Digest(c.Request.Context(), c.Query(branchParam))
	if err != nil {
		h.logger.Error("failed building digest", zap.Error(err))
		c.String(http.StatusInternalServerError, "digest unavailable")
		return
	}
	c.String(http.StatusOK, digest)
}

// SendDigest pushes the digest through the messaging integration.
func (h *DashboardHandler) SendDigest(c *gin.Context) {
	if h.deps.Messaging == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "messaging is not configured"})
		return
	}

	digest, err := h.deps.Service.Digest(c.Request.Context(), c.Query(branchParam))
	if err != nil {
		h.logger.Error("failed building digest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "digest unavailable"})
		return
	}

	if err := h.deps.Messaging.SendDigest(c.Request.Context(), digest); err != nil {
		h.logger.Error("failed sending digest", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Export streams the detail tables as an .xlsx download. ?tipo= restricts the
// workbook to one movement file.
func (h *DashboardHandler) Export(c *gin.Context) {
	var only *models.MovementType
	if raw := c.Query(typeParam); raw != "" {
		mt, err := models.ParseMovementType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		only = &mt
	}

	d, err := h.deps.Service.Dashboard(c.Request.Context(), c.Query(branchParam))
	if err != nil {
		h.logger.Error("failed building dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard unavailable"})
		return
	}

	if only != nil {
		d = keepDetail(d, *only)
	}

	var buf bytes.Buffer
	if err := h.deps.Exporter.WriteDetail(&buf, d); err != nil {
		h.logger.Error("failed exporting workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("inventario_%s.xlsx", unsafeFilename.ReplaceAllString(d.Selection, "_"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// keepDetail clears every detail table except the one of mt.
func keepDetail(d models.Dashboard, mt models.MovementType) models.Dashboard {
	entries, exits, pending := d.Entries, d.Exits, d.PendingRows
	d.Entries, d.Exits, d.PendingRows = models.DetailTable{}, models.DetailTable{}, models.DetailTable{}
	switch mt {
	case models.MovementEntry:
		d.Entries = entries
	case models.MovementExit:
		d.Exits = exits
	default:
		d.PendingRows = pending
	}
	return d
}

// Snapshots lists stored snapshots, newest first. The list is empty when
// no store is configured.
func (h *DashboardHandler) Snapshots(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	if h.deps.Snapshots == nil {
		c.JSON(http.StatusOK, gin.H{"snapshots": []models.Snapshot{}})
		return
	}

	snapshots, err := h.deps.Snapshots.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed listing snapshots", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "snapshot store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// InvalidateCache drops the cached table for ?path=, or every cached table.
func (h *DashboardHandler) InvalidateCache(c *gin.Context) {
	if h.deps.Cache == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache is not configured"})
		return
	}

	if path := c.Query("path"); path != "" {
		dropped := h.deps.Cache.Invalidate(path)
		h.logger.Info("cache invalidated", zap.String("path", path), zap.Int("entries", dropped))
		c.JSON(http.StatusOK, gin.H{"invalidated": path, "entries": dropped})
		return
	}

	h.deps.Cache.Flush()
	h.logger.Info("cache flushed")
	c.JSON(http.StatusOK, gin.H{"invalidated": "all"})
}
