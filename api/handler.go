package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bito/concertworker/internal/concert"
	"bito/concertworker/logger"
	"bito/concertworker/services/concerts"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes mounts the concert routes on r
func RegisterRoutes(r chi.Router, svc ConcertService, cheapMaxPrice int) {
	r.Route("/api/concerts", func(cr chi.Router) {
		cr.Get("/", listConcertsHandler(svc))
		cr.Get("/cheap", cheapConcertsHandler(svc, cheapMaxPrice))
		cr.Get("/scrape", scrapeHandler(svc))
		cr.Get("/scrape/sample", sampleHandler(svc))
	})
}

// ScrapeResponse is returned by the scrape routes
type ScrapeResponse struct {
	Message  string            `json:"message"`
	Count    int               `json:"count"`
	Concerts []concert.Concert `json:"concerts"`
	Sampled  bool              `json:"sampled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func listConcertsHandler(svc ConcertService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.AllConcerts(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func cheapConcertsHandler(svc ConcertService, defaultMax int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxPrice := defaultMax
		if raw := r.URL.Query().Get("max"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "max must be a non-negative integer"})
				return
			}
			maxPrice = v
		}

		list, err := svc.CheapConcerts(r.Context(), maxPrice)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func scrapeHandler(svc ConcertService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ScrapeConcerts(r.Context())
		if errors.Is(err, concerts.ErrScrapeInProgress) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
			return
		}
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, ScrapeResponse{
			Message:  "크롤링 완료",
			Count:    len(res.Concerts),
			Concerts: res.Concerts,
			Sampled:  res.Sampled,
		})
	}
}

func sampleHandler(svc ConcertService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.LoadSamples(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, ScrapeResponse{
			Message:  "샘플 데이터 로드 완료",
			Count:    len(list),
			Concerts: list,
			Sampled:  true,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs err and answers with a generic message
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger.ForAPI().Error().
		Err(err).
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("Request failed")
	writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
}

// requestLogger logs each request once it is served
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.ForAPI().Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Served request")
	})
}
