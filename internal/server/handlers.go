package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediscan-ai/mediscan/internal/analysis"
	"github.com/mediscan-ai/mediscan/internal/history"
	"github.com/mediscan-ai/mediscan/internal/report"
)

// maxBatchSize bounds one batch request.
const maxBatchSize = 50

type batchRequest struct {
	Images []analysis.Request `json:"images"`
}

type exportRequest struct {
	Results       []analysis.Record `json:"results"`
	Format        string            `json:"format"` // csv | pdf
	IncludeImages bool              `json:"include_images"`
}

func (s *Server) handleRoot(c *gin.Context) {
	status := s.models.Status()
	c.JSON(http.StatusOK, gin.H{
		"service":           "MediScan API",
		"version":           Version,
		"status":            "operational",
		"runtime_available": status.RuntimeAvailable,
		"models_loaded":     status.Brain.Loaded || status.Chest.Loaded,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.models.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"models":    status,
	})
}

// handleAnalyze runs one analysis. Pipeline failures are part of the contract:
// they come back 200 with success=false, never as an HTTP error.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rec := s.pipeline.Analyze(req)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "images must not be empty"})
		return
	}
	if len(req.Images) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch exceeds " + strconv.Itoa(maxBatchSize) + " images"})
		return
	}

	results := s.pipeline.AnalyzeBatch(req.Images)
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
		"results":   results,
	})
}

// defaultHistoryLimit applies when the query omits limit.
const defaultHistoryLimit = 100

func (s *Server) handleHistoryList(c *gin.Context) {
	offset := queryInt(c, "offset", 0)
	limit := queryInt(c, "limit", defaultHistoryLimit)

	page, total, err := s.store.List(offset, limit)
	if err != nil {
		s.log.WithError(err).Error("history list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"offset":  offset,
		"count":   len(page),
		"history": page,
	})
}

func (s *Server) handleHistoryDelete(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		s.log.WithError(err).WithField("analysis_id", id).Error("history delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete record"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// handleExport renders the caller-supplied result records as CSV or PDF and
// serves the file as an attachment. An empty list still yields a well-formed
// header-only document. CSV exports also write a companion summary file whose
// name is echoed in the X-Summary-File header.
func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Format)) {
	case "csv":
		detail, summary, err := report.WriteCSV(s.exportDir, req.Results)
		if err != nil {
			s.log.WithError(err).Error("csv export failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "csv export failed"})
			return
		}
		c.Header("X-Summary-File", filepath.Base(summary))
		c.FileAttachment(detail, filepath.Base(detail))
	case "pdf":
		path, err := report.WritePDF(s.exportDir, req.Results, req.IncludeImages)
		if err != nil {
			s.log.WithError(err).Error("pdf export failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pdf export failed"})
			return
		}
		c.FileAttachment(path, filepath.Base(path))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or pdf"})
	}
}

func (s *Server) handleModelsInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.models.Status())
}

func (s *Server) handleModelsReload(c *gin.Context) {
	if err := s.models.Reload(); err != nil {
		s.log.WithError(err).Error("model reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model reload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reloaded": true,
		"models":   s.models.Status(),
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
