package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/document"
	"github.com/dshills/rewind/internal/engine/history"
	"github.com/dshills/rewind/internal/playbook"
	"github.com/dshills/rewind/internal/script"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty reads rewind.toml if present.
	ConfigPath string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// Stdout receives script output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives log output. Defaults to os.Stderr.
	Stderr io.Writer

	// Quiet disables logging.
	Quiet bool
}

// Application holds the resolved configuration and shared services.
type Application struct {
	cfg     *config.Config
	logger  *Logger
	metrics *Metrics
	stdout  io.Writer
}

// New loads configuration and builds the application.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig builds the application from an already resolved configuration.
func NewWithConfig(cfg *config.Config, opts Options) (*Application, error) {
	level, ok := ParseLogLevel(cfg.Logging.Level)
	if !ok {
		return nil, fmt.Errorf("%w: unknown log level %q in configuration", ErrInitialization, cfg.Logging.Level)
	}

	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	logger := NewLogger(LoggerConfig{Level: level, Output: opts.Stderr, Prefix: cfg.Logging.Prefix})
	if opts.LogLevel != "" {
		override, ok := ParseLogLevel(opts.LogLevel)
		if !ok {
			return nil, fmt.Errorf("%w: unknown log level %q", ErrInitialization, opts.LogLevel)
		}
		logger.SetLevel(override)
	}
	if opts.Quiet {
		logger.Disable()
	}
	if cfg.Source != "" {
		logger.Debug("loaded config from %s", cfg.Source)
	}

	return &Application{
		cfg:     cfg,
		logger:  logger,
		metrics: NewMetrics(),
		stdout:  opts.Stdout,
	}, nil
}

// Config returns the resolved configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.logger
}

// Metrics returns the application metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// NewDocument creates a document wired to the application's logger and
// metrics. listener may be nil.
func (app *Application) NewDocument(name string, listener history.Listener) *document.Document {
	opts := []document.Option{
		document.WithName(name),
		document.WithLogger(app.logger.WithComponent("history").WithField("doc", name)),
		document.WithRecorder(app.metrics),
	}
	if listener != nil {
		opts = append(opts, document.WithListener(listener))
	}
	return document.New(opts...)
}

// RunScript executes the Lua script at path against a fresh document.
func (app *Application) RunScript(ctx context.Context, path string) (*Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, NewOperationError("run", path, err)
	}
	return app.RunSource(ctx, path, string(src))
}

// RunSource executes Lua source against a fresh document.
func (app *Application) RunSource(ctx context.Context, name, src string) (*Report, error) {
	log := app.logger.WithComponent("script").WithField("script", name)
	avail := &availability{}
	doc := app.NewDocument(name, avail)

	state := script.NewState(
		script.WithTimeout(app.cfg.Script.Timeout),
		script.WithCallLimit(app.cfg.Script.CallLimit),
		script.WithOutput(app.stdout),
	)
	defer state.Close()
	script.Bind(state, doc)

	start := time.Now()
	err := state.Run(ctx, name, src)
	elapsed := time.Since(start)
	app.metrics.RecordScript(elapsed)

	if err != nil {
		log.Warn("script failed after %s: %v", elapsed, err)
		return newReport(doc, avail, elapsed), NewOperationError("run", name, err)
	}
	log.Debug("script finished in %s", elapsed)
	return newReport(doc, avail, elapsed), nil
}

// RunPlaybook executes the YAML playbook at path against a fresh document.
// Unmet expectations are returned as ErrExpectationFailed along with the result.
func (app *Application) RunPlaybook(ctx context.Context, path string) (*playbook.Result, *Report, error) {
	pb, err := playbook.Load(path)
	if err != nil {
		return nil, nil, NewOperationError("play", path, err)
	}

	log := app.logger.WithComponent("playbook").WithField("playbook", pb.Name)
	avail := &availability{}
	doc := app.NewDocument(pb.Name, avail)

	start := time.Now()
	res, err := playbook.NewRunner(doc).Run(ctx, pb)
	elapsed := time.Since(start)
	app.metrics.RecordScript(elapsed)
	report := newReport(doc, avail, elapsed)

	if err != nil {
		log.Warn("playbook stopped: %v", err)
		return res, report, NewOperationError("play", path, err)
	}
	for _, f := range res.Failures {
		log.Warn("%s", f)
	}
	if !res.OK() {
		detail := fmt.Sprintf("%d of %d checks", len(res.Failures), res.Checks)
		return res, report, NewOperationError("play", path, ErrExpectationFailed).WithContext(detail)
	}
	log.Debug("%d steps, %d checks passed in %s", res.Steps, res.Checks, elapsed)
	return res, report, nil
}

// availability mirrors the listener notifications a toolbar would receive.
type availability struct {
	undo, redo bool
	events     int
}

func (a *availability) SetUndoAvailable(v bool) {
	a.undo = v
	a.events++
}

func (a *availability) SetRedoAvailable(v bool) {
	a.redo = v
	a.events++
}
