package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/wx-forecast/internal/api/http"
	"github.com/i474232898/wx-forecast/internal/config"
	"github.com/i474232898/wx-forecast/internal/logger"
	"github.com/i474232898/wx-forecast/internal/pipeline"
	"github.com/i474232898/wx-forecast/internal/scheduler"
	"github.com/i474232898/wx-forecast/internal/weather"
	"github.com/i474232898/wx-forecast/internal/weather/providers"
)

const (
	modeOnce     = "once"
	modeSchedule = "schedule"
	modeServe    = "serve"
)

func main() {
	variantFlag := flag.String("variant", "", "forecast service to query: national or world (overrides VARIANT)")
	mode := flag.String("mode", modeOnce, "once, schedule or serve")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("PROGRAM INTERRUPTED! " + err.Error())
		os.Exit(1)
	}

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	name := cfg.Variant
	if *variantFlag != "" {
		name = *variantFlag
	}
	variant, err := pipeline.ParseVariant(name)
	if err != nil {
		fmt.Println("PROGRAM INTERRUPTED! " + err.Error())
		os.Exit(1)
	}

	// Shared transport for outbound service calls.
	client := providers.NewClient(providers.ClientConfig{
		Name:                   "wx-forecast",
		HTTP:                   &http.Client{Timeout: cfg.HTTPTimeout},
		MaxConsecutiveFailures: cfg.BreakerMaxFailures,
		RequestsPerSecond:      cfg.WMORequestsPerSecond,
		UserAgent:              "wx-forecast",
		Logger:                 log,
	})

	runner := pipeline.New(pipeline.Options{
		Transport:    client,
		DataDir:      cfg.DataDir,
		ReportDir:    cfg.ReportDir,
		NDFDEndpoint: cfg.NDFDEndpoint,
		WMOBaseURL:   cfg.WMOBaseURL,
		Cooldown:     cfg.Cooldown,
		Retention:    cfg.ArchiveRetention,
		Logger:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case modeOnce:
		code := runOnce(ctx, runner, variant, log)
		stop()
		_ = log.Sync()
		os.Exit(code)
	case modeSchedule, modeServe:
		sched := scheduler.New(runner, variant, cfg.ScheduleAt, log)
		if err := sched.Start(); err != nil {
			log.Fatalw("failed to start scheduler", "error", err)
		}
		defer sched.Stop()
		log.Infow("next scheduled run", "at", sched.NextRun())

		if *mode == modeServe {
			serve(ctx, runner, cfg.Port, log)
			return
		}
		<-ctx.Done()
	default:
		fmt.Printf("PROGRAM INTERRUPTED! unknown mode %q (want once, schedule or serve)\n", *mode)
		os.Exit(1)
	}
}

// runOnce performs a single run and prints the one user-facing message.
func runOnce(ctx context.Context, runner *pipeline.Runner, variant pipeline.Variant, log *logger.Logger) int {
	res, err := runner.Run(ctx, variant)
	fmt.Println(weather.UserMessage(err))
	if err != nil {
		log.Errorw("run failed", "variant", string(variant), "error", err)
		return 1
	}
	log.Infow("run finished", "report", res.ReportPath, "archive", res.ArchivePath, "pruned", len(res.Pruned))
	return 0
}

func serve(ctx context.Context, runner *pipeline.Runner, port string, log *logger.Logger) {
	app := fiber.New(fiber.Config{
		AppName:               "wx-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "wx-forecast",
		})
	})

	httpapi.RegisterRoutes(app, runner)

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}
