package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"autoqueue/internal/config"
	"autoqueue/internal/logging"
	"autoqueue/internal/similarity"
)

// Daemon owns the similarity service lifecycle and enforces
// single-instance execution per data directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *similarity.Service

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status is the daemon's runtime information.
type Status struct {
	Running      bool   `json:"running"`
	DatabasePath string `json:"database_path"`
	LockFilePath string `json:"lock_file_path"`
	APIBind      string `json:"api_bind"`
}

// New constructs a daemon around an initialized similarity service.
func New(cfg *config.Config, service *similarity.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || service == nil {
		return nil, errors.New("daemon requires config and similarity service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		service:  service,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another autoqueue daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	api, err := newAPIServer(d.cfg, d.service, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		cancel()
		return err
	}
	api.status = d.Status
	d.api = api
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.cfg.Paths.APIBind))
	return nil
}

// Stop shuts down the API server and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the similarity store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.service.Close()
}

// Status reports the current daemon state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		APIBind:      d.cfg.Paths.APIBind,
	}
}

// Addr returns the bound API address, empty before Start.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}
