package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/monitor"
	"github.com/skillsenselab/ingest/pipeline"
	"github.com/skillsenselab/ingest/version"
)

const defaultQueryLimit = 50

// Handlers serves the trigger and monitoring endpoints.
type Handlers struct {
	runner      *pipeline.Runner
	recorder    *monitor.Recorder
	pipelineDir string
	log         *logger.Logger
}

// NewHandlers wires the API onto a runner and recorder. pipelineDir is
// where pipeline names resolve to definition files (<dir>/<name>.yaml,
// falling back to .yml).
func NewHandlers(runner *pipeline.Runner, recorder *monitor.Recorder, pipelineDir string, log *logger.Logger) *Handlers {
	return &Handlers{
		runner:      runner,
		recorder:    recorder,
		pipelineDir: pipelineDir,
		log:         log.WithComponent("api"),
	}
}

// Register mounts the API routes.
func (h *Handlers) Register(engine *gin.Engine) {
	engine.GET("/health", h.health)

	v1 := engine.Group("/api/v1")
	v1.POST("/runs", h.triggerRun)
	v1.GET("/runs", h.listRuns)
}

func (h *Handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
}

// triggerRunRequest is the body of POST /api/v1/runs.
type triggerRunRequest struct {
	// Pipeline is the definition name, resolved under the pipeline dir.
	Pipeline string `json:"pipeline" binding:"required"`
	// RunDate is the logical business date (YYYY-MM-DD). Defaults to today.
	RunDate string `json:"run_date"`
}

// triggerRun executes one pipeline run synchronously and returns its run
// record. Stage failures still return 200: the run happened and was
// recorded; its status field says how it went.
func (h *Handlers) triggerRun(c *gin.Context) {
	var req triggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.ContainsAny(req.Pipeline, `/\`) || strings.Contains(req.Pipeline, "..") {
		respondError(c, http.StatusBadRequest, "invalid pipeline name")
		return
	}

	rec, err := h.runner.RunFile(c.Request.Context(), h.configPath(req.Pipeline), req.RunDate)
	if err != nil {
		if errors.IsConfig(err) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		// recording failures and the like
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// configPath resolves a pipeline name under the pipeline dir. Definitions
// may carry either YAML extension; .yaml wins when both exist.
func (h *Handlers) configPath(name string) string {
	path := filepath.Join(h.pipelineDir, name+".yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	alt := filepath.Join(h.pipelineDir, name+".yml")
	if _, err := os.Stat(alt); err == nil {
		return alt
	}
	return path
}

// listRuns returns run records, newest first. Supports ?status=failed,
// ?pipeline=<name>, and ?limit=<n>.
func (h *Handlers) listRuns(c *gin.Context) {
	limit := defaultQueryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var (
		records []monitor.RunRecord
		err     error
	)
	switch {
	case c.Query("pipeline") != "":
		records, err = h.recorder.ByPipeline(c.Request.Context(), c.Query("pipeline"), limit)
	case c.Query("status") == monitor.StatusFailed:
		records, err = h.recorder.Failed(c.Request.Context(), limit)
	case c.Query("status") == "" || c.Query("status") == "all":
		records, err = h.recorder.Recent(c.Request.Context(), limit)
	default:
		respondError(c, http.StatusBadRequest, "status must be \"failed\" or omitted")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []monitor.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
