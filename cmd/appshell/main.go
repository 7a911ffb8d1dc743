package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tomyedwab/appshell/audit"
	"github.com/tomyedwab/appshell/config"
	"github.com/tomyedwab/appshell/launch"
	"github.com/tomyedwab/appshell/resources"
	"github.com/tomyedwab/appshell/status"
	"github.com/tomyedwab/appshell/supervisor"
	"github.com/tomyedwab/appshell/window"
)

func main() {
	configPath := flag.String("config", "", "Path to the launcher config file (defaults apply when empty)")
	controlAddr := flag.String("control", "127.0.0.1:7788", "Address for the local status endpoint (empty to disable)")
	flag.Parse()

	// 1. Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	logger.Info("Starting appshell launcher")

	// 2. Load configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.FromFile(*configPath)
		if err != nil {
			logger.Error("Failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// 3. Open the bootstrap audit trail, if configured. A broken audit
	// database must never prevent the server from starting.
	var auditLogger *audit.Logger
	if cfg.AuditDB != "" {
		db, err := sqlx.Connect("sqlite3", cfg.AuditDB)
		if err != nil {
			logger.Warn("Audit database unavailable, continuing without audit trail", "path", cfg.AuditDB, "error", err)
		} else {
			defer db.Close()
			auditLogger, err = audit.NewLogger(db)
			if err != nil {
				logger.Warn("Failed to initialize audit trail", "error", err)
				auditLogger = nil
			}
		}
	}

	// 4. Resolve bundled resources and build the launch chain
	bases := resources.Bases(cfg.ResourceDir)
	runtimePath, _ := resources.LocateRuntime(bases)
	scriptPath, _ := resources.LocateScript(bases)
	workDir, err := os.Getwd()
	if err != nil {
		logger.Warn("Failed to resolve working directory, dev fallback disabled", "error", err)
	}
	logger.Info("Resolved launch candidates", "runtime", runtimePath, "script", scriptPath, "workDir", workDir)

	chain := launch.NewChain(launch.Config{
		RuntimePath:    runtimePath,
		ScriptPath:     scriptPath,
		RuntimeCommand: cfg.RuntimeCommand,
		WorkDir:        workDir,
		Port:           cfg.Port,
		BindHost:       cfg.BindHost,
		Logger:         logger,
		OnAttempt: func(method launch.Method, err error) {
			auditLogger.LogAttempt(string(method), err)
		},
	})

	// 5. Create the supervisor
	sup, err := supervisor.New(supervisor.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ProbeTimeout: cfg.ProbeTimeout.Std(),
		PollInterval: cfg.PollInterval.Std(),
		MaxAttempts:  cfg.MaxAttempts,
		GracePeriod:  cfg.GracePeriod.Std(),
		Launcher:     chain,
		Window:       &window.BrowserNavigator{Logger: logger},
		Logger:       logger,
		Audit:        auditLogger,
	})
	if err != nil {
		logger.Error("Failed to create supervisor", "error", err)
		os.Exit(1)
	}

	// 6. Run the bootstrap on its background goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	// 7. Serve the status endpoint for UI polling
	if *controlAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/status", status.Handler(sup))
		go func() {
			logger.Info("Status endpoint listening", "addr", *controlAddr)
			if err := http.ListenAndServe(*controlAddr, mux); err != nil {
				logger.Error("Status endpoint failed", "error", err)
			}
		}()
	}

	// 8. Wait for the host to exit, then tear the child down. A failed
	// bootstrap is not a launcher error: the host stays up with the UI
	// in its pre-redirect state.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal, shutting down", "signal", sig.String())

	cancel()
	sup.Shutdown()
	logger.Info("Shutdown complete")
}
