package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
}

var (
	mu      sync.RWMutex
	base    zerolog.Logger
	output  io.Writer
	service string
)

// Configure initialises or reconfigures the global zerolog logger. Every
// call re-applies the level and rebuilds the base logger with the supplied
// output and service name, so the daemon can log with safe defaults before
// its configuration is loaded and re-label afterwards.
func Configure(cfg Config) {
	mu.Lock()
	if cfg.Output != nil {
		output = cfg.Output
	}
	if cfg.Service != "" {
		service = cfg.Service
	}
	writer := output
	if writer == nil {
		writer = os.Stdout
	}
	svc := service
	if svc == "" {
		svc = os.Getenv("LOG_SERVICE")
		if svc == "" {
			svc = "contractd"
		}
	}
	base = zerolog.New(writer).With().
		Timestamp().
		Str("service", svc).
		Logger()
	mu.Unlock()

	level := cfg.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			zerolog.SetGlobalLevel(parsed)
		}
	}
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Base returns the configured base logger instance.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	Configure(Config{})
}
