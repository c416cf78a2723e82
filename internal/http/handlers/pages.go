package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/domain/standings"
	"github.com/preston-bernstein/league-sim-service/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index *template.Template
}

type pageData struct {
	Teams     []string
	Team      string
	Rank      int
	Error     string
	Result    *domainsims.Result
	Standings []standings.Standing
}

func newPages() *pages {
	funcs := template.FuncMap{"ordinal": domainsims.Ordinal}
	return &pages{
		index: template.Must(template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")),
	}
}

// Index renders the simulation form and the current table.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, h.logger) {
		return
	}
	h.renderPage(w, r, http.StatusOK, h.basePage())
}

// Submit runs the form's simulation and renders the result.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost, h.logger) {
		return
	}
	data := h.basePage()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		data.Error = "could not read form"
		h.renderPage(w, r, http.StatusBadRequest, data)
		return
	}
	data.Team = strings.TrimSpace(r.PostForm.Get("team"))
	rank, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("rank")))
	if err != nil {
		data.Error = "rank must be a whole number"
		h.renderPage(w, r, http.StatusBadRequest, data)
		return
	}
	data.Rank = rank

	result, err := h.sims.Simulate(r.Context(), domainsims.Request{Team: data.Team, Rank: rank})
	if err != nil {
		status, message := statusFor(err)
		if status == http.StatusInternalServerError {
			logging.Error(loggerFromContext(r, h.logger), "simulation failed", err)
		}
		if errors.Is(err, domainsims.ErrInvalidRequest) {
			message = strings.TrimPrefix(err.Error(), domainsims.ErrInvalidRequest.Error()+": ")
		}
		data.Error = message
		h.renderPage(w, r, status, data)
		return
	}
	data.Result = &result
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *Handler) basePage() pageData {
	data := pageData{Teams: h.league.Teams()}
	if table, err := h.league.Standings(); err == nil {
		data.Standings = table.Standings
	} else {
		data.Error = "league data not loaded"
	}
	return data
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.pages.index.Execute(&buf, data); err != nil {
		logging.Error(loggerFromContext(r, h.logger), "render page", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
