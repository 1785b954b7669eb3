package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/importer"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/model"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/patterns"
	"github.com/sundsoffice-tech/luca-nrw-scraper-sub003/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync-trigger HTTP server",
	Long: `Exposes the operational surface: a manual sync trigger, the learned
pattern rankings, and a health probe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		working, ps, err := openWorking(ctx)
		if err != nil {
			return err
		}
		defer working.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		}))

		r.Get("/health", healthHandler(working))

		// Serialize manual sync triggers: the importer contract is
		// single-flight.
		var syncMu sync.Mutex
		r.Post("/sync", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Force      bool   `json:"force"`
				DryRun     bool   `json:"dry_run"`
				SourcePath string `json:"source_path"`
				MaxRows    int    `json:"max_rows"`
			}
			if req.Body != nil && req.ContentLength != 0 {
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
					return
				}
			}

			if !syncMu.TryLock() {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "sync already running"})
				return
			}
			defer syncMu.Unlock()

			imp, cleanup, err := newImporter(req.Context(), body.SourcePath)
			if err != nil {
				zap.L().Error("sync trigger failed to initialize", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			defer cleanup()

			report, err := imp.Sync(req.Context(), importer.Options{
				Force:   body.Force,
				DryRun:  body.DryRun,
				MaxRows: body.MaxRows,
			})
			if err != nil {
				zap.L().Error("sync trigger failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]any{
					"error":  err.Error(),
					"report": report,
				})
				return
			}
			writeJSON(w, http.StatusOK, report)
		})

		r.Get("/patterns/{type}", patternsHandler(ps))

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("server listening", zap.Int("port", cfg.Server.Port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func healthHandler(working store.Working) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		count, err := working.CountLeads(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "leads": count})
	}
}

func patternsHandler(ps patterns.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		typ, ok := model.ParsePatternType(chi.URLParam(req, "type"))
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown pattern type"})
			return
		}
		limit := 20
		if q := req.URL.Query().Get("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			limit = n
		}
		top, err := ps.TopPatterns(req.Context(), typ, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, top)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
