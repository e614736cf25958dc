package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
	"github.com/kurihiro0119/github-sentinel/internal/pipeline"
	"github.com/kurihiro0119/github-sentinel/internal/scheduler"
	"github.com/kurihiro0119/github-sentinel/internal/storage"
	"github.com/kurihiro0119/github-sentinel/internal/subscription"
)

// Handler handles API requests. It owns the scheduler handle; starting and
// stopping periodic runs goes through here rather than a global.
type Handler struct {
	subs      *subscription.Store
	pipe      *pipeline.Pipeline
	history   storage.Store
	interval  domain.Interval
	timeOfDay string

	mu    sync.Mutex
	sched *scheduler.Scheduler
}

// NewHandler creates a new API handler
func NewHandler(subs *subscription.Store, pipe *pipeline.Pipeline, history storage.Store, interval domain.Interval, timeOfDay string) *Handler {
	return &Handler{
		subs:      subs,
		pipe:      pipe,
		history:   history,
		interval:  interval,
		timeOfDay: timeOfDay,
	}
}

// ListSubscriptions returns the subscription list
// GET /api/v1/subscriptions
func (h *Handler) ListSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.subs.List(),
	})
}

type addSubscriptionRequest struct {
	Repo  string   `json:"repo" binding:"required"`
	Label string   `json:"label"`
	Track []string `json:"track"`
}

// AddSubscription adds one tracked repository
// POST /api/v1/subscriptions
func (h *Handler) AddSubscription(c *gin.Context) {
	var req addSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid request body"))
		return
	}

	owner, repo, ok := subscription.ParseRepoRef(req.Repo)
	if !ok {
		respondError(c, apperrors.NewBadRequestError("repo must be owner/repo or a GitHub URL"))
		return
	}
	for _, t := range req.Track {
		if !domain.IsValidCategory(t) {
			respondError(c, apperrors.NewBadRequestError("unknown category: "+t))
			return
		}
	}

	added, err := h.subs.Add(domain.Subscription{
		Owner: owner,
		Repo:  repo,
		Label: req.Label,
		Track: req.Track,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !added {
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":    "ALREADY_EXISTS",
				"message": owner + "/" + repo + " is already subscribed",
			},
		})
		return
	}

	sub, _ := h.subs.Get(owner, repo)
	c.JSON(http.StatusCreated, gin.H{"data": sub})
}

// RemoveSubscription removes one tracked repository
// DELETE /api/v1/subscriptions/:owner/:repo
func (h *Handler) RemoveSubscription(c *gin.Context) {
	owner := c.Param("owner")
	repo := c.Param("repo")

	removed, err := h.subs.Remove(owner, repo)
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		respondError(c, apperrors.NewNotFoundError("subscription "+owner+"/"+repo))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": owner + "/" + repo}})
}

type runRequest struct {
	Repo   string `json:"repo"`
	Days   int    `json:"days"`
	Digest bool   `json:"digest"`
}

// Run fetches updates and generates reports immediately
// POST /api/v1/run
func (h *Handler) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondError(c, apperrors.NewBadRequestError("invalid request body"))
		return
	}

	opts := pipeline.Options{LookbackDays: req.Days, Digest: req.Digest}
	if req.Repo != "" {
		owner, repo, ok := subscription.ParseRepoRef(req.Repo)
		if !ok {
			respondError(c, apperrors.NewBadRequestError("repo must be owner/repo or a GitHub URL"))
			return
		}
		opts.Owner, opts.Repo = owner, repo
	}

	result, err := h.pipe.Run(c.Request.Context(), opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoSubscriptions) {
			respondError(c, apperrors.NewBadRequestError("no subscriptions configured, nothing to do"))
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"reports":             result.Reports,
			"fetch_failures":      result.FetchFailures,
			"generation_failures": result.GenerationFailures,
		},
	})
}

// ListReports returns the most recent report records
// GET /api/v1/reports
func (h *Handler) ListReports(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var records []*domain.ReportRecord
	var err error
	if owner, repo := c.Query("owner"), c.Query("repo"); owner != "" && repo != "" {
		records, err = h.history.ListReportsByRepo(c.Request.Context(), owner, repo, limit)
	} else {
		records, err = h.history.ListReports(c.Request.Context(), limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

// GetReport returns one report record together with its file content
// GET /api/v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	record, err := h.history.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	content, err := os.ReadFile(record.Path)
	if err != nil {
		respondError(c, apperrors.NewIOError("failed to read report file", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"record":  record,
			"content": string(content),
		},
	})
}

// StartScheduler starts the periodic runner in the background
// POST /api/v1/scheduler/start
func (h *Handler) StartScheduler(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sched != nil && h.sched.Running() {
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":    "ALREADY_RUNNING",
				"message": "scheduler is already running",
			},
		})
		return
	}

	sched, err := scheduler.New(h.interval, h.timeOfDay)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sched = sched

	go func() {
		_ = sched.Start(func() {
			// Scheduled runs keep going on failure; the next firing may succeed
			if _, err := h.pipe.Run(context.Background(), pipeline.Options{}); err != nil {
				log.Printf("scheduled run failed: %v", err)
			}
		})
	}()

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"status":   "running",
			"schedule": sched.Describe(),
		},
	})
}

// StopScheduler stops the periodic runner
// POST /api/v1/scheduler/stop
func (h *Handler) StopScheduler(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sched != nil {
		h.sched.Stop()
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "stopped"}})
}

// SchedulerStatus reports whether the periodic runner is active
// GET /api/v1/scheduler/status
func (h *Handler) SchedulerStatus(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := "stopped"
	schedule := ""
	if h.sched != nil && h.sched.Running() {
		status = "running"
		schedule = h.sched.Describe()
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"status":   status,
			"schedule": schedule,
		},
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRemoteAPI:
			status = http.StatusBadGateway
		case apperrors.ErrCodeGeneration:
			status = http.StatusBadGateway
		case apperrors.ErrCodeConfig:
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
