// Command modem-info collects detailed information and statistics from a
// DOCSIS cable modem on an interval and emits them to CSV/JSONL files, a
// Prometheus exporter and/or a Loki endpoint.
//
// Usage:
//
//	modem-info [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml", or MODEM_INFO_CONFIG)
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ReK42/modem-info/config"
	"github.com/ReK42/modem-info/modems/coda45"
	"github.com/ReK42/modem-info/outputs"
	"github.com/ReK42/modem-info/utils"
)

func main() {
	configPath := flag.String("config", utils.Getenv("MODEM_INFO_CONFIG", "config.yaml"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging)

	if !cfg.Outputs.CSV && !cfg.Outputs.JSONL && !cfg.Prometheus.Enabled && !cfg.Loki.Enabled {
		logger.Fatal("Must enable at least one output: csv, jsonl, prometheus, loki")
	}

	modem := &coda45.Modem{
		IPAddress: cfg.Modem.Address,
		Scheme:    cfg.Modem.Scheme,
	}
	interval := time.Duration(cfg.Modem.Interval * float64(time.Second))

	logger.WithFields(logrus.Fields{
		"address":  modem.Address(),
		"interval": interval,
	}).Info("Starting modem-info")

	if cfg.Prometheus.Enabled {
		go outputs.Prometheus(modem, cfg.Prometheus.Port)
	}

	if cfg.Loki.Enabled {
		loki, err := outputs.NewLokiExporter(cfg.Loki.Endpoint, modem, cfg.Loki.Labels)
		if err != nil {
			logger.Fatalf("Failed to create Loki exporter: %v", err)
		}
		loki.StartPolling(interval)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Outputs.CSV || cfg.Outputs.JSONL {
		poll := func() {
			modem.ClearStats()
			if cfg.Outputs.CSV {
				if err := outputs.WriteCSV(modem, cfg.Outputs.Path); err != nil {
					logger.WithError(err).Error("Failed to write CSV")
				}
			}
			if cfg.Outputs.JSONL {
				if err := outputs.WriteJSONL(modem, cfg.Outputs.Path); err != nil {
					logger.WithError(err).Error("Failed to write JSONL")
				}
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		poll()
		for {
			select {
			case <-ticker.C:
				poll()
			case sig := <-sigs:
				logger.Infof("Received %v, shutting down", sig)
				return
			}
		}
	}

	sig := <-sigs
	logger.Infof("Received %v, shutting down", sig)
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
