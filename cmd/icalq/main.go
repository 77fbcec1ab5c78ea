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

	"github.com/robfig/cron/v3"

	"icalq/internal/config"
	"icalq/internal/ics"
	appLog "icalq/internal/log"
	"icalq/internal/model"
	"icalq/internal/timeline"
	"icalq/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	dump       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("icalq starting", "version", "0.1.0-dev")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides the config file if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"sources", len(conf.Sources),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx, conf, flags.dump); err != nil {
			appLog.Error("one-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	runDaemon(ctx, conf)
	appLog.Info("icalq exiting")
}

// runOnce fetches and parses every configured feed a single time. With
// -dump it prints the serialized container trees; otherwise it prints the
// events falling inside the configured horizon.
func runOnce(ctx context.Context, conf *config.Config, dump bool) error {
	fetcher := ics.NewFetcher(conf.CacheDir)

	sources := make([]ics.Source, 0, len(conf.Sources))
	for _, sc := range conf.Sources {
		sources = append(sources, ics.Source{ID: sc.ID, URL: sc.URL})
	}

	results, errs := fetcher.FetchAll(ctx, sources)
	if len(results) == 0 && len(errs) > 0 {
		return fmt.Errorf("all %d feeds failed", len(errs))
	}

	events := make([]model.Event, 0)
	for _, res := range results {
		components, err := ics.ParseString(string(res.Body))
		if err != nil {
			appLog.Error("feed parse failed", err, "id", res.Source.ID)
			continue
		}
		if dump {
			fmt.Print(ics.Encode(components))
			continue
		}
		events = append(events, ics.Events(res.Source.ID, components)...)
	}
	if dump {
		return nil
	}

	entries := make([]timeline.Entry, len(events))
	for i := range events {
		entries[i] = &events[i]
	}

	now := time.Now()
	for _, entry := range timeline.New(entries...).Overlapping(now, now.AddDate(0, 0, conf.HorizonDays)) {
		ev := entry.(*model.Event)
		end := ""
		if !ev.End.IsZero() {
			end = " .. " + ev.End.Format(time.RFC3339)
		}
		fmt.Printf("%s%s  %s\n", ev.Begin.Format(time.RFC3339), end, ev.Summary)
	}
	return nil
}

// runDaemon serves the query API and refreshes the timeline on the
// configured cron schedule until the context is cancelled.
func runDaemon(ctx context.Context, conf *config.Config) {
	server := web.NewServer(conf)

	// Warm the cache before serving; a failure here is not fatal, the
	// first request will retry.
	if err := server.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if err := server.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh cron expression", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	httpSrv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Error("HTTP server failed", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/icalq/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+query cycle and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "With -once: dump the parsed container trees instead of querying")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
