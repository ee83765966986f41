package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/daemon"
	"inferd/internal/fetch"
	"inferd/internal/httpapi"
	"inferd/internal/llm"
	"inferd/internal/manager"
	"inferd/internal/memguard"
	"inferd/internal/pool"
	"inferd/internal/sysinfo"
)

func main() {
	// Flags with environment variable defaults; file config sits between
	// built-in defaults and flags.
	defaultAddr := os.Getenv("INFERD_ADDR")
	var (
		configPath  = flag.String("config", "", "Config file (.yaml/.yml/.json/.toml)")
		addr        = flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
		modelsDir   = flag.String("models-dir", "", "Directory for downloaded model artifacts")
		maxLoaded   = flag.Int("max-loaded-models", 0, "Maximum concurrently loaded models")
		logLevel    = flag.String("log-level", "", "Log level: debug|info|warn|error")
		corsEnabled = flag.Bool("cors", false, "Enable CORS for the HTTP API")
		corsOrigins = flag.String("cors-origins", "", "Comma-separated allowed CORS origins")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Merge(cfg, fileCfg)
	}
	cfg = config.Merge(cfg, config.Config{
		Addr:            *addr,
		ModelsDir:       *modelsDir,
		MaxLoadedModels: *maxLoaded,
		LogLevel:        *logLevel,
		CORSEnabled:     *corsEnabled,
		CORSOrigins:     splitList(*corsOrigins),
	})

	log := newLogger(cfg.LogLevel)

	dir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("models dir")
	}

	cat := catalog.New()
	profiler := sysinfo.NewHostProfiler(dir, log)
	fetcher := fetch.New(dir, log)
	mgr, err := manager.New(manager.Config{
		Dir:             dir,
		MaxOldArtifacts: cfg.MaxOldArtifacts,
	}, cat, profiler, fetcher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("manager init")
	}

	factory := llm.NewLlamaFactory(runtime.NumCPU())
	p := pool.New(pool.Config{
		MaxLoaded:     cfg.MaxLoadedModels,
		IdleUnload:    time.Duration(cfg.IdleUnloadSecs) * time.Second,
		ContextWindow: cfg.ContextWindow,
		DefaultTiers:  cfg.DefaultTiers,
	}, mgr, factory, log)
	guard := memguard.New(memguard.Config{
		HighPercent:     cfg.HighMemoryPercent,
		CriticalPercent: cfg.CriticalMemoryPercent,
		MaxIdle:         time.Duration(cfg.IdleUnloadSecs) * time.Second,
	}, log)
	d := daemon.New(cfg, cat, mgr, p, guard, log)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	mux := httpapi.NewMux(d, httpapi.Options{
		CORSEnabled: cfg.CORSEnabled,
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", dir).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM).
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
	d.Shutdown()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
