package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/classtream/lectures-client/domain"
	"github.com/classtream/lectures-client/metrics"
)

// notifier is the slice of pq.Listener the subscription pump needs. Tests
// substitute an in-memory implementation.
type notifier interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// snapshotFunc loads the full current ordered state of the collection.
type snapshotFunc func(ctx context.Context) ([]domain.Job, error)

// jobSubscription turns Postgres NOTIFY events into full-snapshot
// deliveries. A single pump goroutine queries and sends, so deliveries are
// strictly ordered and can never regress.
type jobSubscription struct {
	listener  notifier
	snapshots chan []domain.Job
	errs      chan error
	done      chan struct{}
	cancel    sync.Once
	logger    *zap.Logger
}

func startSubscription(ctx context.Context, sub *jobSubscription, load snapshotFunc) (*jobSubscription, error) {
	if err := sub.listener.Listen(jobsChannel); err != nil {
		_ = sub.listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", jobsChannel, err)
	}
	go sub.pump(ctx, load)
	return sub, nil
}

func (s *jobSubscription) Snapshots() <-chan []domain.Job { return s.snapshots }
func (s *jobSubscription) Errs() <-chan error             { return s.errs }

// Cancel stops deliveries and releases the listener connection. Safe to
// call any number of times, from any goroutine, before or after the first
// snapshot.
func (s *jobSubscription) Cancel() {
	s.cancel.Do(func() {
		close(s.done)
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("failed to close job stream listener", zap.Error(err))
		}
	})
}

func (s *jobSubscription) pump(ctx context.Context, load snapshotFunc) {
	defer close(s.snapshots)

	// Initial snapshot on connect, then one per change. A nil notification
	// means the listener reconnected after an outage; notifications may
	// have been lost, so re-sync then too.
	if !s.deliver(ctx, load) {
		return
	}
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case _, ok := <-s.listener.NotificationChannel():
			if !ok {
				return
			}
			if !s.deliver(ctx, load) {
				return
			}
		}
	}
}

// deliver queries and sends one snapshot. Returns false once the
// subscription should stop. A failed load leaves the stream degraded: the
// error surfaces, nothing is delivered, and the next notification or
// reconnect retries the sync.
func (s *jobSubscription) deliver(ctx context.Context, load snapshotFunc) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	jobs, err := load(ctx)
	if err != nil {
		s.degraded(fmt.Errorf("failed to load job snapshot: %w", err))
		return true
	}
	domain.SortJobs(jobs)

	select {
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	case s.snapshots <- jobs:
		metrics.SnapshotsDelivered.Inc()
		return true
	}
}

func (s *jobSubscription) degraded(err error) {
	metrics.SubscriptionErrors.Inc()
	select {
	case s.errs <- err:
	default:
	}
}

// listenerEvent receives pq.Listener connection state changes.
func (s *jobSubscription) listenerEvent(_ pq.ListenerEventType, err error) {
	if err == nil {
		return
	}
	select {
	case <-s.done:
	default:
		s.degraded(fmt.Errorf("job stream connection: %w", err))
	}
}
