package chi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsdex/internal/usecase/health"
	"github.com/kailas-cloud/newsdex/internal/usecase/usage"
)

const (
	defaultTrendingWindow = 24 * time.Hour
	defaultTrendingLimit  = 10
	maxSimilarLimit       = 50
	maxTrendingLimit      = 100
	maxTrendingHours      = 7 * 24
)

// Server wires the personalization use cases into HTTP handlers.
type Server struct {
	learner       Learner
	profiles      ProfileManager
	feed          FeedSearcher
	ingest        Ingester
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP transport over the given use cases.
func NewServer(
	learner Learner,
	profiles ProfileManager,
	feed FeedSearcher,
	ingest Ingester,
	usageSvc UsageReporter,
	healthSvc HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		learner:       learner,
		profiles:      profiles,
		feed:          feed,
		ingest:        ingest,
		usage:         usageSvc,
		health:        healthSvc,
		logger:        logger,
		errorHandlers: domainErrorHandlers(),
	}
}

// Routes registers all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/interactions", s.handleTrack)
		r.Post("/articles", s.handleIngest)
		r.Get("/articles/{articleID}/similar", s.handleSimilar)
		r.Get("/trending", s.handleTrending)
		r.Get("/usage", s.handleUsage)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Delete("/profile", s.handleDeleteProfile)
			r.Get("/insights", s.handleInsights)
			r.Get("/proposals", s.handleProposals)
			r.Post("/learn", s.handleLearn)
			r.Get("/stats", s.handleStats)
			r.Delete("/interactions", s.handleReset)
			r.Get("/feed", s.handleFeed)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, toHealthResponse(report))
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ArticleID == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "user_id and article_id are required")
		return
	}

	tracked, err := s.learner.Track(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInteractionResponse(tracked))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.learner.Analyze(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightsResponse(insights))
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	changes, err := s.learner.ProposeUpdates(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalsResponse{UserID: userID, Changes: toChangeDTOs(changes)})
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	profile, changes, err := s.profiles.Learn(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, learnResponse{
		Profile: toProfileDTO(profile),
		Changes: toChangeDTOs(changes),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.learner.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.learner.Reset(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	updated, err := s.profiles.Update(r.Context(), req.toDomain(chi.URLParam(r, "userID")))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(updated))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.Delete(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	result, err := s.feed.SearchByPreferences(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFeedResponse(userID, result))
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")

	limit, ok := queryInt(r, "limit", maxSimilarLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
		return
	}

	hits, err := s.feed.SimilarArticles(r.Context(), articleID, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSimilarResponse(articleID, hits))
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	windowHours, ok := queryInt(r, "window_hours", maxTrendingHours)
	if !ok {
		writeError(w, http.StatusBadRequest, codeBadRequest, "window_hours must be a positive integer")
		return
	}
	limit, ok := queryInt(r, "limit", maxTrendingLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a positive integer")
		return
	}

	window := defaultTrendingWindow
	if windowHours > 0 {
		window = time.Duration(windowHours) * time.Hour
	}
	if limit == 0 {
		limit = defaultTrendingLimit
	}

	topics, err := s.feed.Trending(r.Context(), window, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrendingResponse(window, topics))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "id and content are required")
		return
	}

	chunks, err := s.ingest.Ingest(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{ArticleID: req.ID, Chunks: chunks})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	period := usage.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = usage.PeriodDay
	}
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "period must be day, month or total")
		return
	}

	writeJSON(w, http.StatusOK, toUsageResponse(s.usage.GetReport(r.Context(), period)))
}

// queryInt parses an optional positive integer query parameter.
// Absent values return 0; values above max are clamped.
func queryInt(r *http.Request, name string, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	if v > max {
		v = max
	}
	return v, true
}
