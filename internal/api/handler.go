package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tmarks/go-relief-allocator/internal/allocation"
	"github.com/tmarks/go-relief-allocator/internal/classifier"
	"github.com/tmarks/go-relief-allocator/internal/inventory"
	"github.com/tmarks/go-relief-allocator/internal/models"
	"github.com/tmarks/go-relief-allocator/internal/notify"
	"github.com/tmarks/go-relief-allocator/internal/repository"
)

type Handler struct {
	coord       *allocation.Coordinator
	repo        repository.Repository
	store       *inventory.Store
	broadcaster *notify.Broadcaster
	predictor   classifier.Predictor
}

func NewHandler(coord *allocation.Coordinator, repo repository.Repository, store *inventory.Store, broadcaster *notify.Broadcaster, predictor classifier.Predictor) *Handler {
	return &Handler{
		coord:       coord,
		repo:        repo,
		store:       store,
		broadcaster: broadcaster,
		predictor:   predictor,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/batches", h.createBatch)
	r.POST("/api/batches/run", h.runStoredBatch)
	r.GET("/api/batches", h.listBatches)
	r.GET("/api/batches/stream", h.streamBatches)
	r.GET("/api/batches/:id", h.getBatch)
	r.GET("/api/inventory", h.getInventory)
	r.PUT("/api/inventory", h.setInventory)
	r.GET("/health", h.health)
}

type eventInput struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	PeopleAffected int64  `json:"people_affected"`
	Location       string `json:"location"`
	Deaths         int64  `json:"deaths"`
	DamagesUSD     int64  `json:"damages_usd"`
}

type batchRequest struct {
	Events []eventInput     `json:"events"`
	Pool   map[string]int64 `json:"pool"`
}

func (h *Handler) createBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batch must contain at least one event"})
		return
	}

	events := make([]models.DisasterEvent, 0, len(req.Events))
	for _, in := range req.Events {
		events = append(events, h.toEvent(in))
	}

	// An explicit pool allocates against exactly that snapshot and leaves
	// the shared inventory alone. Without one, the run draws down the store.
	if req.Pool != nil {
		pool, err := parsePool(req.Pool)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.runAdHoc(c, events, pool)
		return
	}

	h.runOnInventory(c, events)
}

func (h *Handler) runStoredBatch(c *gin.Context) {
	events, err := h.repo.ListEvents(c.Request.Context(), repository.Filter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stored events"})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no stored events to allocate"})
		return
	}

	h.runOnInventory(c, events)
}

// runOnInventory executes one batch inside the inventory store's critical
// section: the pool snapshot, the allocation, and the drawdown all happen
// under the same lock, so concurrent requests can never spend the same
// capacity twice.
func (h *Handler) runOnInventory(c *gin.Context, events []models.DisasterEvent) {
	var result models.BatchResult
	err := h.store.Run(c.Request.Context(), func(pool models.ResourcePool) (models.ResourcePool, error) {
		r, err := h.coord.Run(events, pool)
		if err != nil {
			return nil, err
		}
		result = r

		spent := make(models.ResourcePool, len(models.AllResourceKinds))
		for _, kind := range models.AllResourceKinds {
			spent[kind] = pool[kind] - r.Summary.Remaining[kind]
		}
		return spent, nil
	})
	if err != nil {
		slog.Error("allocation run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "allocation failed"})
		return
	}

	h.finishBatch(c, result)
}

// runAdHoc allocates against a caller-supplied pool without touching the
// shared inventory.
func (h *Handler) runAdHoc(c *gin.Context, events []models.DisasterEvent, pool models.ResourcePool) {
	result, err := h.coord.Run(events, pool)
	if err != nil {
		slog.Error("allocation run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "allocation failed"})
		return
	}

	h.finishBatch(c, result)
}

func (h *Handler) finishBatch(c *gin.Context, result models.BatchResult) {
	if err := h.repo.SaveBatch(c.Request.Context(), &result); err != nil {
		// The allocation stands even if history can't be written.
		slog.Error("failed to persist batch", "batch", result.ID, "error", err)
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(&result)
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) listBatches(c *gin.Context) {
	filter := repository.Filter{
		Limit: 20, // Default to 20 batches if limit param not supplied
	}

	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}

	batches, err := h.repo.ListBatches(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch batches"})
		return
	}
	if batches == nil {
		batches = []models.BatchResult{}
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

func (h *Handler) getBatch(c *gin.Context) {
	batch, err := h.repo.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch batch"})
		return
	}
	if batch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (h *Handler) streamBatches(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming disabled"})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Stream(func(w io.Writer) bool {
		select {
		case result, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("batch", result)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) getInventory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"inventory": h.store.Snapshot()})
}

func (h *Handler) setInventory(c *gin.Context) {
	var body map[string]int64
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pool, err := parsePool(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.Set(c.Request.Context(), pool); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update inventory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": h.store.Snapshot()})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// toEvent converts an input record, predicting a tier when none was given.
// An unrecognized tier is passed through so the coordinator can default it
// to Low and attach the warning to the event's result.
func (h *Handler) toEvent(in eventInput) models.DisasterEvent {
	ev := models.DisasterEvent{
		ID:             in.ID,
		Type:           models.ParseDisasterType(in.Type),
		PeopleAffected: in.PeopleAffected,
		Location:       in.Location,
		ReportedAt:     time.Now().UTC(),
	}

	if in.Severity == "" && h.predictor != nil {
		if tier, confidence, err := h.predictor.Predict(classifier.Features{
			Type:           ev.Type,
			PeopleAffected: in.PeopleAffected,
			Deaths:         in.Deaths,
			DamagesUSD:     in.DamagesUSD,
		}); err == nil {
			ev.Severity = tier
			slog.Debug("predicted severity", "id", ev.ID, "tier", tier, "confidence", confidence)
			return ev
		}
	}

	if tier, ok := models.ParseSeverity(in.Severity); ok {
		ev.Severity = tier
	} else {
		ev.Severity = models.Severity(in.Severity)
	}
	return ev
}

func parsePool(raw map[string]int64) (models.ResourcePool, error) {
	pool := make(models.ResourcePool, len(models.AllResourceKinds))
	for key, quantity := range raw {
		kind, err := parseResourceKind(key)
		if err != nil {
			return nil, err
		}
		if quantity < 0 {
			return nil, fmt.Errorf("quantity for %s must not be negative", key)
		}
		pool[kind] = quantity
	}
	for _, kind := range models.AllResourceKinds {
		if _, ok := pool[kind]; !ok {
			pool[kind] = 0
		}
	}
	return pool, nil
}

func parseResourceKind(s string) (models.ResourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "food":
		return models.ResourceFood, nil
	case "water":
		return models.ResourceWater, nil
	case "medicine":
		return models.ResourceMedicine, nil
	case "shelter":
		return models.ResourceShelter, nil
	default:
		return "", fmt.Errorf("unknown resource kind: %s", s)
	}
}
