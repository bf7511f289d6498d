package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"patient-dashboard/internal/dashboard"
	"patient-dashboard/internal/models"
)

const (
	defaultJournalLimit = 20
	maxJournalLimit     = 200
)

// Journal is the read side of the fetch journal.
type Journal interface {
	RecentFetches(limit int) ([]models.FetchRecord, error)
}

type Handlers struct {
	store   *dashboard.Store
	journal Journal
}

func NewHandlers(store *dashboard.Store, journal Journal) *Handlers {
	return &Handlers{store: store, journal: journal}
}

type statePayload struct {
	View  dashboard.View   `json:"view"`
	Stats models.Stats     `json:"stats"`
	Cards []models.Patient `json:"cards"`
}

func newStatePayload(v dashboard.View) statePayload {
	cards := v.Cards()
	if cards == nil {
		cards = []models.Patient{}
	}
	return statePayload{View: v, Stats: v.Stats(), Cards: cards}
}

type journalEntry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	URL        string    `json:"url"`
	StatusCode int       `json:"statusCode"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "patient-dashboard",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Dashboard renders the page for the current View.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := renderPage(w, h.store.Snapshot()); err != nil {
		log.Printf("Error rendering dashboard: %v", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
	}
}

// ApplySort handles the sort form.
func (h *Handlers) ApplySort(w http.ResponseWriter, r *http.Request) {
	field, err := models.ParseSortField(r.FormValue("sort_by"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := models.ParseSortOrder(r.FormValue("order"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The outcome lands in the View; errors are shown on the banner.
	h.store.LoadSorted(detach(r), field, order)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Search handles the find-one form.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	h.store.LoadOne(detach(r), r.FormValue("patient_id"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	h.store.Reset(detach(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, newStatePayload(h.store.Snapshot()))
}

func (h *Handlers) ListJournal(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "fetch journal is disabled")
		return
	}

	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	records, err := h.journal.RecentFetches(limit)
	if err != nil {
		log.Printf("Error reading fetch journal: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to read fetch journal")
		return
	}

	entries := make([]journalEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, journalEntry{
			ID:         rec.ID,
			Operation:  rec.Operation,
			URL:        rec.URL,
			StatusCode: rec.StatusCode,
			DurationMs: rec.Duration.Milliseconds(),
			Error:      rec.Error,
			StartedAt:  rec.StartedAt.UTC(),
		})
	}
	respond(w, http.StatusOK, entries)
}

// detach keeps a backend request alive when the browser navigates away
// mid-load; only a newer load or Store.Shutdown cancels it.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
