// Package lifecycle orchestrates process-level startup and graceful
// shutdown: the election controller and the optional control API
// server, started and stopped in a fixed order.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/pkg/ledger"
)

// archiveBatchLimit bounds how many promotion rows a single archive
// run exports, matching the ledger's own Recent query shape.
const archiveBatchLimit = 1000

// DefaultShutdownTimeout bounds how long Serve waits for the API
// server to stop, and for the final archive export, during shutdown.
// The election controller's Stop is bounded by its own
// PromotionStopTimeout.
const DefaultShutdownTimeout = 15 * time.Second

// AuxiliaryServer is implemented by the control API's HTTP server.
type AuxiliaryServer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ElectionController is the subset of *election.Controller the
// lifecycle service depends on, kept as an interface so tests can
// substitute a fake.
type ElectionController interface {
	Start(ctx context.Context) error
	Stop()
}

// PromotionSource is the subset of *ledger.Store the lifecycle service
// reads from when exporting to the archiver.
type PromotionSource interface {
	Recent(ctx context.Context, limit int) ([]ledger.Promotion, error)
}

// Archiver is the subset of *archive.Archiver the lifecycle service
// depends on, kept as an interface so tests can substitute a fake.
type Archiver interface {
	ArchivePromotions(ctx context.Context, rows []ledger.Promotion, at time.Time) (string, error)
}

// Service orchestrates server startup and graceful shutdown for a
// single tso-lease replica process.
type Service struct {
	shutdownTimeout time.Duration
	controller      ElectionController
	apiServer       AuxiliaryServer

	archiver        Archiver
	promotionSource PromotionSource
	archiveInterval time.Duration
	archiveStopCh   chan struct{}
	archiveStopped  chan struct{}

	serveOnce sync.Once
	served    bool
}

// New builds a Service bound to controller. apiServer may be nil to
// run without the control API (e.g. for a minimal embedded replica).
func New(controller ElectionController, apiServer AuxiliaryServer, shutdownTimeout time.Duration) *Service {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Service{
		shutdownTimeout: shutdownTimeout,
		controller:      controller,
		apiServer:       apiServer,
	}
}

// SetArchiver attaches an optional ledger archiver. When interval is
// positive, a background ticker additionally exports on that cadence
// in between the guaranteed export performed on shutdown; interval
// zero means rows are exported only once, at shutdown. Must be called
// before Serve.
func (s *Service) SetArchiver(archiver Archiver, source PromotionSource, interval time.Duration) {
	s.archiver = archiver
	s.promotionSource = source
	s.archiveInterval = interval
}

// Serve starts the election controller and the API server (if
// configured), then blocks until ctx is cancelled or either component
// fails. It performs an ordered shutdown before returning.
func (s *Service) Serve(ctx context.Context) error {
	var err error
	s.serveOnce.Do(func() {
		s.served = true
		err = s.serve(ctx)
	})
	return err
}

func (s *Service) serve(ctx context.Context) error {
	logger.Info("lifecycle: starting tso-lease")

	if err := s.controller.Start(ctx); err != nil {
		return fmt.Errorf("lifecycle: start election controller: %w", err)
	}

	if s.archiver != nil && s.archiveInterval > 0 {
		s.archiveStopCh = make(chan struct{})
		s.archiveStopped = make(chan struct{})
		go s.archiveLoop()
	}

	apiErrChan := make(chan error, 1)
	if s.apiServer != nil {
		go func() {
			if err := s.apiServer.Start(ctx); err != nil {
				logger.Error("lifecycle: api server error", "error", err)
				apiErrChan <- err
			}
		}()
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("lifecycle: shutdown signal received", "reason", ctx.Err())
		shutdownErr = ctx.Err()
	case err := <-apiErrChan:
		logger.Error("lifecycle: api server failed, initiating shutdown", "error", err)
		shutdownErr = fmt.Errorf("lifecycle: api server error: %w", err)
	}

	s.shutdown()

	logger.Info("lifecycle: tso-lease stopped")
	return shutdownErr
}

func (s *Service) shutdown() {
	if s.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.apiServer.Stop(ctx); err != nil {
			logger.Error("lifecycle: api server shutdown error", "error", err)
		}
	}

	if s.archiveStopCh != nil {
		close(s.archiveStopCh)
		<-s.archiveStopped
	}

	if s.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		s.runArchive(ctx)
		cancel()
	}

	logger.Info("lifecycle: stopping election controller")
	s.controller.Stop()
}

// archiveLoop runs the periodic archive export until shutdown() signals
// it to exit. It always performs a final export in shutdown(), so a
// missed tick here just means one fewer intermediate export.
func (s *Service) archiveLoop() {
	defer close(s.archiveStopped)

	ticker := time.NewTicker(s.archiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.archiveStopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.archiveInterval)
			s.runArchive(ctx)
			cancel()
		}
	}
}

func (s *Service) runArchive(ctx context.Context) {
	rows, err := s.promotionSource.Recent(ctx, archiveBatchLimit)
	if err != nil {
		logger.Error("lifecycle: failed to read promotions for archive export", "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	key, err := s.archiver.ArchivePromotions(ctx, rows, time.Now())
	if err != nil {
		logger.Error("lifecycle: failed to archive promotions", "error", err)
		return
	}
	logger.Info("lifecycle: archived promotions", "key", key, "rows", len(rows))
}
