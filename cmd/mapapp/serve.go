package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scholarmap/internal/live"
	"scholarmap/internal/locations"
	"scholarmap/internal/web"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the map web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.close()
			if addr != "" {
				e.cfg.Map.Addr = addr
			}
			if !g.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			return serve(cmd.Context(), e)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func serve(ctx context.Context, e *env) error {
	log := e.log
	repo := locations.NewRepo(e.db, e.cfg.Database.Table)
	store := locations.NewStore(repo)
	if err := store.Reload(ctx); err != nil {
		log.Error("load locations", zap.Error(err))
		return err
	}
	log.Info("locations loaded", zap.Int("rows", store.Len()), zap.String("table", e.cfg.Database.Table))

	hub := live.NewHub(log.Named("live"))
	router, err := web.NewRouter(web.Deps{
		Config: e.cfg,
		DB:     e.db,
		Store:  store,
		Repo:   repo,
		Hub:    hub,
		Log:    log,
	})
	if err != nil {
		return err
	}

	var feed *live.FeedServer
	if e.cfg.Map.FeedAddr != "" {
		feed = live.NewFeedServer(e.cfg.Map.FeedAddr, hub)
		// bind before serving HTTP so a taken port fails startup
		if err := feed.Listen(); err != nil {
			log.Error("feed listen", zap.String("addr", e.cfg.Map.FeedAddr), zap.Error(err))
			return err
		}
	}

	httpSrv := &http.Server{
		Addr:    e.cfg.Map.Addr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	if feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("change feed listening", zap.String("addr", feed.ListenAddr().String()))
			if err := feed.Serve(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("map server listening", zap.String("addr", e.cfg.Map.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errCh:
		log.Error("server error", zap.Error(runErr))
	}

	log.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.Map.ShutdownGrace)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if feed != nil {
		if err := feed.Close(); err != nil {
			log.Warn("feed shutdown", zap.Error(err))
		}
	}
	// websocket handlers hold their connections until the peer leaves
	hub.CloseAll()

	wg.Wait()
	log.Info("servers stopped")
	return runErr
}
