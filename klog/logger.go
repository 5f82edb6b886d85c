// Package klog provides the structured logging used across the kioto
// runtime: Store, Broker, Event, and the env builder/loader.
//
// Adapted from the teacher's internal/logger package: a package-level
// zerolog.Logger configured once via Initialize, with component-scoped
// child loggers for each subsystem instead of one per HTTP concern.
package klog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the global logger instance. Initialize configures it; until
// then it defaults to zerolog's own default (debug level, JSON to stderr).
var Log zerolog.Logger = log.Logger

// Initialize configures the global logger. pretty selects a human
// readable console writer (for local development); otherwise logs are
// JSON with unix-second timestamps, suitable for aggregation.
func Initialize(level string, pretty bool) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	}

	Log = log.With().Str("service", "kioto").Logger()
	Log.Info().Str("level", logLevel.String()).Bool("pretty", pretty).Msg("logger initialized")
}

// component returns a child logger tagged with the given subsystem name.
func component(name string) *zerolog.Logger {
	l := Log.With().Str("component", name).Logger()
	return &l
}

// Store returns the logger used by the plugin registry (journal, items,
// name resolution).
func Store() *zerolog.Logger { return component("store") }

// Broker returns the logger used by the message broker's send/receive path.
func Broker() *zerolog.Logger { return component("broker") }

// Event returns the logger used by event start/handler-chain sequencing.
func Event() *zerolog.Logger { return component("event") }

// Runtime returns the logger used by the worker-pool and cancellation plumbing.
func Runtime() *zerolog.Logger { return component("runtime") }

// Env returns the logger used by the environment builder and loader.
func Env() *zerolog.Logger { return component("env") }
