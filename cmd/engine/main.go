package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/httpapi"
	"jobwatch-engine/internal/metrics"
	"jobwatch-engine/internal/poll"
	"jobwatch-engine/internal/scrape"
	"jobwatch-engine/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		slog.Error("engine stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real env vars win over it.
	_ = godotenv.Load()

	var (
		dataDir = flag.String("data-dir", envOr("JOBWATCH_DATA_DIR", "."), "directory holding config.yml, the database and lock files")
		once    = flag.Bool("once", false, "run the enabled sources (or -source) once, print the results and exit")
		source  = flag.String("source", "", "with -once, run only this source")
		clear   = flag.String("clear", "", "delete every stored posting of this source and exit")
	)
	flag.Parse()

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return err
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(*dataDir, defaultCfgPath)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}

	// Load config and keep it reloadable
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		cfg.App.DataDir = *dataDir
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", userCfgPath, err)
	}
	cfg, vr := config.NormalizeAndValidate(cfg)

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	for _, w := range vr.Warnings {
		logger.Warn("config", "warning", w)
	}
	if !vr.OK() {
		return config.Validate(cfg)
	}

	var cfgVal atomic.Value // stores config.Config
	cfgVal.Store(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, storeOptions(*dataDir, cfg), logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if *clear != "" {
		if !scrape.Known(*clear) {
			return fmt.Errorf("unknown source %q", *clear)
		}
		n, err := st.ClearAll(ctx, *clear)
		if err != nil {
			return err
		}
		fmt.Printf("cleared %d postings from %s\n", n, *clear)
		return nil
	}

	hub := events.NewHub()
	m := metrics.New()

	var locker scrape.Locker = scrape.NewKeyedLocker()
	if cfg.Polling.CrossProcessLock {
		fl, err := scrape.NewFileLocker(filepath.Join(*dataDir, "locks"))
		if err != nil {
			return err
		}
		locker = fl
	}

	pipeline := &scrape.Pipeline{
		Store:   st,
		Fetcher: scrape.NewFetcher(cfg, logger),
		Locker:  locker,
		Metrics: m,
		Log:     logger,
		OnNewJob: func(source string, p domain.JobPosting) {
			hub.Publish(events.MakeEvent("", events.JobCreated, source, p))
		},
	}
	poller := poll.New(pipeline, func() config.Config { return cfgVal.Load().(config.Config) }, logger)
	poller.OnResult = func(res domain.RunResult) {
		hub.Publish(events.MakeEvent("", events.RunFinished, res.Source, res))
	}

	if *once {
		return runOnce(ctx, poller, *source)
	}

	poller.Start(ctx)

	mux := httpapi.NewMux(httpapi.Deps{
		Store:       st,
		Hub:         hub,
		Poller:      poller,
		Metrics:     m.Handler(),
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Log:         logger,
	})

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	httpLog := logger.With("component", "http")
	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover(httpLog), httpapi.AccessLog(httpLog), httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token := os.Getenv("JOBWATCH_SHUTDOWN_TOKEN")
	if token == "" {
		if token, err = randomToken(16); err != nil {
			return err
		}
	}
	mux.HandleFunc("/shutdown", shutdownHandler(token, srv))

	logger.Info("engine listening", "addr", "http://"+addr, "store", cfg.Store.Driver, "config", userCfgPath)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	stop()
	poller.Wait()
	logger.Info("engine stopped cleanly")
	return nil
}

func runOnce(ctx context.Context, poller *poll.Poller, source string) error {
	var (
		results []domain.RunResult
		err     error
	)
	if source != "" {
		var res domain.RunResult
		res, err = poller.RunOnce(ctx, source)
		results = []domain.RunResult{res}
	} else {
		results, err = poller.RunAll(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(results)
	return err
}

func storeOptions(dataDir string, cfg config.Config) store.Options {
	return store.Options{
		Driver:           cfg.Store.Driver,
		SQLitePath:       inDir(dataDir, cfg.Store.SQLitePath),
		FileDir:          inDir(dataDir, cfg.Store.FileDir),
		PostgresDSN:      cfg.Store.Postgres.DSN,
		PostgresMaxConns: cfg.Store.Postgres.MaxConns,
		ViaBouncer:       cfg.Store.Postgres.ViaBouncer,
	}
}
