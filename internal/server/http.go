// Package server exposes the pipeline over HTTP: report generation, the
// passphrase-gated history view, and a health probe.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"localradar/internal/config"
	"localradar/internal/engine"
	"localradar/internal/history"
	"localradar/internal/logger"
	"localradar/internal/model"
)

// NewHTTPServer builds the kratos HTTP server with all routes registered.
func NewHTTPServer(cfg *config.Config, eng *engine.Engine, store history.Store) *http.Server {
	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		http.Address(cfg.Server.Addr),
		http.Timeout(time.Duration(cfg.Server.Timeout) * time.Second),
	}

	srv := http.NewServer(opts...)
	h := &handlers{eng: eng, store: store, passphrase: cfg.Admin.Passphrase}

	srv.HandleFunc("/healthz", h.health)
	srv.HandleFunc("/api/report", h.report)
	srv.HandleFunc("/api/history", h.history)
	return srv
}

type handlers struct {
	eng        *engine.Engine
	store      history.Store
	passphrase string
}

type reportRequest struct {
	Category  string `json:"category"`
	Location  string `json:"location"`
	Requester string `json:"requester_name"`
}

func (h *handlers) health(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"})
}

// report runs the full pipeline and streams back the PDF. "No competitors
// found" is an informational reply, not an error status.
func (h *handlers) report(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Category == "" || req.Location == "" || req.Requester == "" {
		writeJSON(w, nethttp.StatusBadRequest,
			map[string]string{"error": "category, location and requester_name are required"})
		return
	}

	query := model.SearchQuery{
		Category:  req.Category,
		Location:  req.Location,
		Requester: req.Requester,
	}
	result, err := h.eng.Run(r.Context(), query)
	if errors.Is(err, engine.ErrNoCompetitors) {
		writeJSON(w, nethttp.StatusOK,
			map[string]string{"message": "No competitors found. Try different terms."})
		return
	}
	if err != nil {
		logger.Log.Errorf("server: report generation failed: %v", err)
		writeJSON(w, nethttp.StatusInternalServerError,
			map[string]string{"error": "report could not be generated"})
		return
	}

	filename := fmt.Sprintf("market_report_%s.pdf", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.PDF)))
	w.WriteHeader(nethttp.StatusOK)
	if _, err := w.Write(result.PDF); err != nil {
		logger.Log.Warnf("server: writing pdf response failed: %v", err)
	}
}

// history serves the admin view behind the single shared passphrase.
func (h *handlers) history(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.passphrase == "" ||
		subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Admin-Passphrase")), []byte(h.passphrase)) != 1 {
		writeJSON(w, nethttp.StatusUnauthorized, map[string]string{"error": "invalid passphrase"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		logger.Log.Errorf("server: history read failed: %v", err)
		writeJSON(w, nethttp.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	type row struct {
		Requester        string    `json:"requester_name"`
		Category         string    `json:"category"`
		Location         string    `json:"location"`
		CompetitionLevel string    `json:"competition_level"`
		Title            string    `json:"title"`
		Slogan           string    `json:"slogan"`
		NicheAlert       string    `json:"niche_alert"`
		CreatedAt        time.Time `json:"created_at"`
	}
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row(e))
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"entries": rows})
}

func writeJSON(w nethttp.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
