// Package server exposes the chat backend over HTTP: health, semantic
// search and the RAG chat endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mentor-rag/internal/llmservice"
	"mentor-rag/internal/models"
	"mentor-rag/internal/prompts"
	"mentor-rag/internal/retrieval"
	"mentor-rag/internal/store"
)

const (
	Version = "0.1.0"

	defaultSearchLimit = 5
	maxSearchLimit     = 50

	// cited source text is truncated so chat responses stay small
	sourceTextLimit = 500
)

// Chatter is the slice of llmservice the handlers need; tests swap in a
// fake.
type Chatter interface {
	GenerateResponse(ctx context.Context, systemPrompt string, history []models.ChatMessage, message string) (string, error)
}

// Retriever is the slice of the retrieval service the handlers need.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, sourceFilter string) (*retrieval.Result, error)
}

type Server struct {
	retriever Retriever
	chatter   Chatter
	store     store.Store
	validate  *validator.Validate

	corsOrigins []string
}

func New(retriever Retriever, chatter Chatter, st store.Store, corsOrigins []string) *Server {
	return &Server{
		retriever:   retriever,
		chatter:     chatter,
		store:       st,
		validate:    validator.New(),
		corsOrigins: corsOrigins,
	}
}

// Routes configures the router with middleware and all endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.root)
	r.Get("/health", s.health)
	r.Get("/search", s.search)
	r.Post("/chat", s.chat)

	return r
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "mentor backend is running",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:  "healthy",
		Version: Version,
		Components: map[string]string{
			"api":          "ok",
			"vector_store": "ok",
		},
	}

	count, err := s.store.Count(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.Components["vector_store"] = "unavailable"
	} else {
		resp.VectorStoreDocuments = count
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	source := r.URL.Query().Get("source")

	result, err := s.retriever.Retrieve(r.Context(), query, limit, source)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]models.SearchResult, len(result.Chunks))
	for i, c := range result.Chunks {
		results[i] = models.SearchResult{
			ID:             c.ID,
			Text:           c.Text,
			Metadata:       c.Metadata,
			Distance:       c.Distance,
			RelevanceScore: c.RelevanceScore,
		}
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{
		Query:      query,
		NumResults: len(results),
		Results:    results,
	})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.retriever.Retrieve(r.Context(), req.Message, 0, "")
	if err != nil {
		log.Error().Err(err).Msg("Retrieval failed")
		writeError(w, http.StatusInternalServerError, "failed to retrieve context")
		return
	}

	systemPrompt := prompts.SystemPrompt(result.FormattedContext)

	response, err := s.chatter.GenerateResponse(r.Context(), systemPrompt, req.ConversationHistory, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, llmservice.ErrLLM):
			log.Error().Err(err).Msg("LLM error in chat")
			writeError(w, http.StatusServiceUnavailable, "failed to get response from AI service")
		default:
			log.Error().Err(err).Msg("Unexpected error in chat")
			writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response: response,
		Sources:  formatSources(result.Chunks),
	})
}

func formatSources(chunks []retrieval.RetrievedChunk) []models.SourceChunk {
	sources := make([]models.SourceChunk, len(chunks))
	for i, c := range chunks {
		text := c.Text
		if len(text) > sourceTextLimit {
			cut := sourceTextLimit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "..."
		}
		sources[i] = models.SourceChunk{
			ID:             c.ID,
			Text:           text,
			SourceType:     c.SourceType,
			Date:           c.Metadata["date"],
			Title:          c.Metadata["title"],
			RelevanceScore: c.RelevanceScore,
		}
	}
	return sources
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

// requestLogger logs one line per request with latency, in the zerolog
// style the rest of the backend uses.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		var evt *zerolog.Event
		if ww.Status() >= 500 {
			evt = log.Error()
		} else {
			evt = log.Info()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}
