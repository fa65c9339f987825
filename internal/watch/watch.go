// Package watch re-evaluates a form definition whenever its files change.
//
// The watcher observes the directories holding the definition and values
// files rather than the files themselves, so editors that save by
// rename-and-replace keep being tracked.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/solatis/formrel/internal/formdef"
)

// DefaultDebounce coalesces bursts of events from a single save.
const DefaultDebounce = 100 * time.Millisecond

// Config selects the files to watch.
type Config struct {
	DefinitionPath string
	ValuesPath     string // optional
	Options        formdef.Options
	Debounce       time.Duration // 0 selects DefaultDebounce
}

// Watcher evaluates the definition on start and after every change.
type Watcher struct {
	fw       *fsnotify.Watcher
	cfg      Config
	files    map[string]bool
	onReport func(formdef.Report)
	logger   *zap.Logger
}

// New creates a watcher. onReport receives every successful evaluation;
// failures are logged and the watcher keeps running.
func New(cfg Config, onReport func(formdef.Report), logger *zap.Logger) (*Watcher, error) {
	if cfg.DefinitionPath == "" {
		return nil, fmt.Errorf("definition path required")
	}
	if onReport == nil {
		return nil, fmt.Errorf("report callback required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Options.Logger == nil {
		cfg.Options.Logger = logger
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fw:       fw,
		cfg:      cfg,
		files:    make(map[string]bool),
		onReport: onReport,
		logger:   logger,
	}

	dirs := make(map[string]bool)
	for _, p := range []string{cfg.DefinitionPath, cfg.ValuesPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Run evaluates once, then on every change, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	w.evaluate()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("definition files changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			w.evaluate()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

func (w *Watcher) evaluate() {
	doc, err := formdef.Load(w.cfg.DefinitionPath)
	if err != nil {
		w.logger.Error("failed to load definition", zap.Error(err))
		return
	}
	values, err := formdef.LoadValues(w.cfg.ValuesPath)
	if err != nil {
		w.logger.Error("failed to load values", zap.Error(err))
		return
	}
	report, err := formdef.Evaluate(doc, values, w.cfg.Options)
	if err != nil {
		w.logger.Error("failed to evaluate form", zap.String("form_id", doc.ID), zap.Error(err))
		return
	}
	w.onReport(report)
}
