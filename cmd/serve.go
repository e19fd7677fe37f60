package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrata/dataops-cli/internal/classify"
	"github.com/adrata/dataops-cli/internal/model"
	"github.com/adrata/dataops-cli/internal/resolve"
	"github.com/adrata/dataops-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolution and classification API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		api := &apiServer{
			store:      st,
			matcher:    newMatcher(),
			classifier: newClassifier(),
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", api.handleHealth)
		r.Post("/api/resolve/company", api.handleResolveCompany)
		r.Post("/api/classify", api.handleClassify)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
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

type apiServer struct {
	store      store.Store
	matcher    *resolve.Matcher
	classifier *classify.Classifier
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResolveCompany matches a name against the workspace's companies
// (or an inline candidate list) and returns the best match, including
// the best-below-threshold score when nothing clears the bar.
func (s *apiServer) handleResolveCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string   `json:"workspace_id"`
		Name        string   `json:"name"`
		Candidates  []string `json:"candidates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var candidates []resolve.Candidate
	if len(req.Candidates) > 0 {
		for i, name := range req.Candidates {
			candidates = append(candidates, resolve.Candidate{ID: int64(i), Name: name})
		}
	} else if req.WorkspaceID != "" {
		companies, err := s.store.ListCompanies(r.Context(), req.WorkspaceID)
		if err != nil {
			zap.L().Error("resolve: list companies", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "lookup failed")
			return
		}
		for _, c := range companies {
			candidates = append(candidates, resolve.Candidate{ID: c.ID, Name: c.Name})
		}
	} else {
		writeError(w, http.StatusBadRequest, "workspace_id or candidates is required")
		return
	}

	match, best := s.matcher.FindBestMatch(req.Name, candidates)

	resp := map[string]any{
		"matched":    match != nil,
		"normalized": resolve.Normalize(req.Name),
	}
	if match != nil {
		resp["match"] = match
	} else if best != nil {
		resp["best_below_threshold"] = best
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClassify classifies one title, optionally with peer context.
func (s *apiServer) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Stage string `json:"stage"`
		Peers []struct {
			Title string `json:"title"`
			Stage string `json:"stage"`
		} `json:"peers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var a classify.Assignment
	if req.Stage == "" && len(req.Peers) == 0 {
		a = s.classifier.Classify(req.Title)
	} else {
		peers := make([]classify.Peer, 0, len(req.Peers))
		for _, p := range req.Peers {
			peers = append(peers, classify.Peer{
				Title: p.Title,
				Stage: model.EngagementStage(p.Stage),
			})
		}
		a = s.classifier.ClassifyWithPeers(req.Title, model.EngagementStage(req.Stage), peers)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"role":            a.Role,
		"role_label":      a.Role.Label(),
		"influence_score": a.InfluenceScore,
		"influence_level": model.LevelForScore(a.InfluenceScore),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
