package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/renoworks/pricing-engine/internal/feedback"
	"github.com/renoworks/pricing-engine/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pricing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/material-price", handleMaterialPrice(env))
	r.Get("/materials/category/{category}", handleMaterialsByCategory(env))
	r.Post("/generate-proposal", handleGenerateProposal(env))
	r.Post("/feedback", handleFeedback(env))

	r.Get("/quotes", handleListQuotes(env))
	r.Get("/quotes/{id}", handleGetQuote(env))
	r.Get("/quotes/{id}/feedback", handleQuoteFeedback(env))

	r.Get("/analytics/feedback", handleFeedbackAnalytics(env))
	r.Get("/regions/{region}/adjustments", handleRegionAdjustments(env))

	return r
}

func handleMaterialPrice(env *appEnv) http.HandlerFunc {
	type request struct {
		Query string `json:"query"`
		model.SearchFilters
		Limit int `json:"limit"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Query == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		results, err := env.Ranker.Search(r.Context(), req.Query, req.SearchFilters, req.Limit)
		if err != nil {
			zap.L().Error("material search failed", zap.String("query", req.Query), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"query":   req.Query,
			"count":   len(results),
			"results": results,
		})
	}
}

func handleMaterialsByCategory(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := chi.URLParam(r, "category")
		cat, ok := env.Categories[category]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown category")
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		results, err := env.Ranker.BrowseCategory(r.Context(), cat.MaterialKeywords, r.URL.Query().Get("region"), limit)
		if err != nil {
			zap.L().Error("category browse failed", zap.String("category", category), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "category browse failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"category": category,
			"count":    len(results),
			"results":  results,
		})
	}
}

func handleGenerateProposal(env *appEnv) http.HandlerFunc {
	type request struct {
		Transcript  string         `json:"transcript"`
		Region      string         `json:"region"`
		ProjectType string         `json:"project_type"`
		UserType    model.UserType `json:"user_type"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Transcript == "" {
			writeError(w, http.StatusBadRequest, "transcript is required")
			return
		}
		if req.UserType == "" {
			req.UserType = model.UserClient
		}

		quote, err := env.Proposals.GenerateProposal(r.Context(), req.Transcript, req.Region, req.ProjectType, req.UserType)
		if err != nil {
			zap.L().Error("proposal generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "proposal generation failed")
			return
		}

		writeJSON(w, http.StatusOK, quote)
	}
}

func handleFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fb model.Feedback
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if fb.QuoteID == "" {
			writeError(w, http.StatusBadRequest, "quote_id is required")
			return
		}

		result, err := env.Learner.Submit(r.Context(), &fb)
		switch {
		case errors.Is(err, feedback.ErrQuoteNotFound):
			writeError(w, http.StatusNotFound, "quote not found")
			return
		case err != nil:
			if !fb.Verdict.Valid() {
				writeError(w, http.StatusBadRequest, "unknown verdict")
				return
			}
			zap.L().Error("feedback processing failed", zap.String("quote_id", fb.QuoteID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "feedback processing failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleGetQuote(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quote, err := env.Proposals.GetQuote(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "quote lookup failed")
			return
		}
		if quote == nil {
			writeError(w, http.StatusNotFound, "quote not found")
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}

func handleListQuotes(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := model.QuoteFilter{
			UserType: model.UserType(r.URL.Query().Get("user_type")),
			Region:   r.URL.Query().Get("region"),
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = limit
		}

		quotes, err := env.Proposals.ListQuotes(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "quote listing failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(quotes), "quotes": quotes})
	}
}

func handleQuoteFeedback(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listed, err := env.Learner.List(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "feedback listing failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(listed), "feedback": listed})
	}
}

func handleFeedbackAnalytics(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analytics, err := env.Learner.Analytics(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "analytics failed")
			return
		}
		writeJSON(w, http.StatusOK, analytics)
	}
}

func handleRegionAdjustments(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		region := chi.URLParam(r, "region")
		adjustments, err := env.Store.ListRegionAdjustments(r.Context(), region, 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "adjustment listing failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"region":      region,
			"count":       len(adjustments),
			"adjustments": adjustments,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
