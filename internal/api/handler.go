// Package api serves a read-only JSON view of the price history and the
// tracking runs.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"PriceSentinel/internal/history"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/tracker"
)

const defaultRunLimit = 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    history.Store
	recorder recorder.Recorder
	now      func() time.Time
}

// NewHandler creates a new HTTP handler. rec may be nil, in which case the
// runs endpoint returns an empty list.
func NewHandler(store history.Store, rec recorder.Recorder) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{store: store, recorder: rec, now: time.Now}
}

type dropResponse struct {
	Title    string          `json:"title"`
	Date     string          `json:"date"`
	Previous decimal.Decimal `json:"previous"`
	Current  decimal.Decimal `json:"current"`
	Delta    decimal.Decimal `json:"delta"`
	Currency model.Currency  `json:"currency"`
}

type runResponse struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Date       string    `json:"date"`
	Fetcher    string    `json:"fetcher"`
	Tracked    int       `json:"tracked"`
	Observed   int       `json:"observed"`
	Skipped    int       `json:"skipped"`
	Drops      int       `json:"drops"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "price-sentinel",
		"history": h.store.Location(),
	})
}

// ListHistory returns the whole history, title -> date -> entry.
func (h *Handler) ListHistory(c *gin.Context) {
	hist, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, hist)
}

// GetHistory returns the series of one product. The title is a catch-all
// parameter because product titles may contain slashes.
func (h *Handler) GetHistory(c *gin.Context) {
	hist, ok := h.load(c)
	if !ok {
		return
	}
	title := strings.TrimPrefix(c.Param("title"), "/")
	series, found := hist[title]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not tracked: " + title})
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title, "series": series})
}

// ListDrops returns the day-over-day drops for ?date=YYYY-MM-DD, today by
// default, plus the titles that lacked data for a comparison.
func (h *Handler) ListDrops(c *gin.Context) {
	day := h.now()
	if q := c.Query("date"); q != "" {
		t, err := model.ParseDateKey(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		day = t
	}

	hist, ok := h.load(c)
	if !ok {
		return
	}

	drops := []dropResponse{}
	insufficient := []string{}
	for chk := range tracker.Scan(hist, day) {
		switch chk.Status {
		case tracker.StatusDrop:
			d := chk.Report()
			drops = append(drops, dropResponse{
				Title: d.Title, Date: d.Date, Previous: d.Previous,
				Current: d.Current, Delta: d.Delta, Currency: d.Currency,
			})
		case tracker.StatusInsufficientData:
			insufficient = append(insufficient, chk.Title)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":              model.DateKey(day),
		"drops":             drops,
		"insufficient_data": insufficient,
	})
}

// ListRuns returns the most recent tracking runs, newest first.
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultRunLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.recorder.RecentRuns(limit)
	if err != nil {
		log.Printf("[ERROR] list runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read runs"})
		return
	}
	out := make([]runResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, runResponse{
			ID: r.ID, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt, Date: r.Date,
			Fetcher: r.Fetcher, Tracked: r.Tracked, Observed: r.Observed,
			Skipped: r.Skipped, Drops: r.Drops, Status: r.Status, Error: r.Error,
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (h *Handler) load(c *gin.Context) (model.History, bool) {
	hist, err := h.store.Load(c.Request.Context())
	if err != nil {
		log.Printf("[ERROR] load history: %v", err)
		msg := "failed to load history"
		if errors.Is(err, history.ErrCorruptHistory) {
			msg = "history is corrupt"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return nil, false
	}
	return hist, true
}
