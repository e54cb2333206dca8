package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/api/idtoken"

	"verifylens/api"
	"verifylens/shared/ai"
	"verifylens/shared/config"
	"verifylens/shared/email"
	"verifylens/shared/logging"
	"verifylens/shared/monitoring"
	"verifylens/shared/scheduler"
	"verifylens/shared/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracker := usage.NewTracker(nil, logger)
	analyzer, err := ai.NewFromConfig(ctx, cfg, tracker, logger)
	if err != nil {
		logger.Fatalf("Failed to create analyzer: %v", err)
	}

	// verifylens --analyze <media_type> <path>
	if len(os.Args) > 1 && os.Args[1] == "--analyze" {
		if len(os.Args) != 4 {
			logger.Fatalf("usage: %s --analyze <media_type> <path>", os.Args[0])
		}
		result := analyzer.AnalyzeMedia(ctx, os.Args[3], os.Args[2])
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Fatalf("Failed to encode result: %v", err)
		}
		fmt.Println(tracker.GenerateReport())
		if result.Failed() {
			os.Exit(1)
		}
		return
	}

	var monitor *monitoring.Monitor
	if !cfg.Monitoring.Disabled {
		monitor = monitoring.NewMonitor(logger)
	}

	var validator api.TokenValidator
	if cfg.Server.Auth.Audience != "" {
		v, err := idtoken.NewValidator(ctx)
		if err != nil {
			logger.Fatalf("Failed to create token validator: %v", err)
		}
		validator = v
		logger.Infof("Usage endpoints require ID tokens for audience %s", cfg.Server.Auth.Audience)
	}

	job := usage.NewReportJob(tracker, logger)
	if cfg.Email.Enabled() {
		job.WithNotifier(email.NewSender(&cfg.Email))
		logger.Infof("Usage reports will be mailed to %s", cfg.Email.ToEmail)
	}
	reports := scheduler.New(cfg.Usage.ReportSchedule, job, logger)
	go func() {
		if err := reports.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Usage report scheduler stopped")
		}
	}()

	server := api.NewServer(cfg, analyzer, tracker, monitor, validator, logger)
	if err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	// Final report on shutdown
	if err := reports.RunOnce(context.Background()); err != nil {
		logger.WithError(err).Warn("Final usage report failed")
	}
}
