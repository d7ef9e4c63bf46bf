package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inkboard/inkboard/backend-go/internal/asset"
	"github.com/inkboard/inkboard/backend-go/internal/auth"
	"github.com/inkboard/inkboard/backend-go/internal/board"
	"github.com/inkboard/inkboard/backend-go/internal/collab"
	"github.com/inkboard/inkboard/backend-go/internal/config"
	"github.com/inkboard/inkboard/backend-go/internal/export"
	mw "github.com/inkboard/inkboard/backend-go/internal/middleware"
	"github.com/inkboard/inkboard/backend-go/internal/project"
	"github.com/inkboard/inkboard/backend-go/internal/store"
	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}

	queries := store.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	projectService := project.NewService(queries)
	projectHandler := project.NewHandler(projectService)

	// Board loader for the live board hub.
	boardLoader := func(projectID string) (*board.Project, error) {
		snap, err := queries.GetLatestSnapshot(context.Background(), projectID)
		if err != nil {
			return nil, err
		}
		var p board.Project
		if err := json.Unmarshal(snap.Document, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	// Board saver for the live board hub.
	boardSaver := func(projectID string, doc json.RawMessage) error {
		nextVersion := int32(1)
		if snap, err := queries.GetLatestSnapshot(context.Background(), projectID); err == nil {
			nextVersion = snap.Version + 1
		}

		_, err := queries.CreateSnapshot(context.Background(), store.CreateSnapshotParams{
			ID:        typeid.NewSnapshotID(),
			ProjectID: projectID,
			Version:   nextVersion,
			Document:  doc,
		})
		if err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}
		return nil
	}

	hub := collab.NewHub(boardLoader, boardSaver)
	go hub.Run()

	assetHandler := asset.NewHandler(cfg.AssetDir, cfg.MaxUploadMB)
	exportHandler := export.NewHandler(cfg.FfmpegPath)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Image upload and retrieval
	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Board image format conversion
	r.HandleFunc("/export/image", exportHandler.ExportImage).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{projectId}", projectHandler.Rename).Methods("PATCH")
	api.HandleFunc("/projects/{projectId}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/snapshots/latest", projectHandler.GetLatestSnapshot).Methods("GET")
	api.HandleFunc("/projects/{projectId}/snapshots", projectHandler.SaveSnapshot).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, queries, cfg.AllowedOrigins)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so every dirty board is persisted.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handleWebSocket upgrades the connection and joins the board room. The
// project owner edits; every other authenticated user joins as a read-only
// viewer (screen-share semantics).
func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, queries *store.Queries, allowedOrigins string) {
	projectID := mux.Vars(r)["projectId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	proj, err := queries.GetProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	role := collab.RoleViewer
	if proj.OwnerID == userID {
		role = collab.RoleEditor
	}

	user, err := authSvc.GetUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	var originPatterns []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			originPatterns = append(originPatterns, o)
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, user.DisplayName, projectID, clientID, role)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
