package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/champions"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/config"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/coordinator"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/httpapi"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/hub"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/notify"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/platform"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	champs := champions.NewRegistry()
	if cfg.DDragonRefresh {
		loader := champions.Loader{Log: log.Named("champions")}
		if err := loader.Refresh(ctx, champs); err != nil {
			log.Warn("champion refresh failed, using built-in roster", zap.Error(err))
		}
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, openErr := store.OpenPostgres(cfg.DatabaseURL, log.Named("store"))
		if openErr != nil {
			return openErr
		}
		st = pg
	} else {
		log.Info("DATABASE_URL not set, using in-memory store")
		st = store.NewMemory()
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	h := hub.NewHub(ctx, log.Named("hub"))
	bus := notify.Multi{h}
	if cfg.RedisAddr != "" {
		rd, dialErr := notify.DialRedis(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if dialErr != nil {
			return dialErr
		}
		defer func() { err = multierr.Append(err, rd.Close()) }()
		bus = append(bus, rd)
	}

	var community platform.Community = platform.Nop{}
	if cfg.DiscordToken != "" {
		community = platform.NewDiscord(cfg.DiscordBaseURL, cfg.DiscordToken, cfg.DiscordGuildID, log.Named("discord"))
	}

	c := coordinator.New(ctx, coordinator.Deps{
		Store:     st,
		Bus:       bus,
		Community: community,
		Champions: champs,
		Log:       log,
	}, cfg.Coordinator())
	defer c.Shutdown()

	n, err := c.Restore(ctx)
	if err != nil {
		return err
	}
	log.Info("queue restored", zap.Int("entries", n))
	if err := c.StartTicks(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRoutes(c, h, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
