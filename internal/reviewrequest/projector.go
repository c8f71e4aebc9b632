package reviewrequest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/platform/metrics"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Store persists review-request events and the topic taxonomy.
type Store interface {
	AppendEvents(ctx context.Context, events ...Event) error
	ListEvents(ctx context.Context) ([]Event, error)
	LoadTopics(ctx context.Context) (TopicTable, error)
	SaveTopics(ctx context.Context, topics []openalex.Topic) error
}

// Categorizer classifies a preprint by DOI.
type Categorizer interface {
	Categorize(ctx context.Context, doi string) (openalex.Categorization, error)
}

// Projector keeps the current State in memory and rebuilds it from the store.
type Projector struct {
	store       Store
	categorizer Categorizer
	logger      logrus.FieldLogger
	now         func() time.Time

	current   atomic.Pointer[State]
	refreshMu sync.Mutex

	cronMu sync.Mutex
	cron   *cron.Cron
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithCategorizer enables the categorization job.
func WithCategorizer(categorizer Categorizer) ProjectorOption {
	return func(p *Projector) {
		p.categorizer = categorizer
	}
}

// WithLogger sets the job logger.
func WithLogger(logger logrus.FieldLogger) ProjectorOption {
	return func(p *Projector) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source for new events.
func WithClock(now func() time.Time) ProjectorOption {
	return func(p *Projector) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProjector builds a Projector with an empty snapshot.
func NewProjector(store Store, opts ...ProjectorOption) *Projector {
	p := &Projector{store: store, logger: logging.Discard(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	empty := NewState(nil)
	p.current.Store(&empty)
	return p
}

// Snapshot returns the latest State.
func (p *Projector) Snapshot() State {
	return *p.current.Load()
}

// Refresh rebuilds the snapshot from every stored event.
func (p *Projector) Refresh(ctx context.Context) error {
	if p == nil || p.store == nil {
		return errors.New("review request store is not configured")
	}
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	topics, err := p.store.LoadTopics(ctx)
	if err != nil {
		return fmt.Errorf("load topics: %w", err)
	}
	events, err := p.store.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	state := Fold(topics, events)
	p.current.Store(&state)
	metrics.SetReviewRequests(state.Len())
	return nil
}

// Record appends events and refreshes the snapshot.
func (p *Projector) Record(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := p.store.AppendEvents(ctx, events...); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return p.Refresh(ctx)
}

// Publish records a new request for preprintID as received and accepted.
func (p *Projector) Publish(ctx context.Context, preprintID preprint.ID, requester Requester) (uuid.UUID, error) {
	requestID := uuid.New()
	at := p.now().UTC()
	err := p.Record(ctx,
		Received{ReviewRequestID: requestID, PreprintID: preprintID, ReceivedAt: at, Requester: requester},
		Accepted{ReviewRequestID: requestID, AcceptedAt: at},
	)
	if err != nil {
		return uuid.Nil, err
	}
	return requestID, nil
}

// CategorizePending classifies every accepted, uncategorized request and
// returns how many were categorized. A failure on one request is logged and
// does not stop the others.
func (p *Projector) CategorizePending(ctx context.Context) (int, error) {
	if p.categorizer == nil {
		return 0, errors.New("categorizer is not configured")
	}
	pending := Uncategorized(p.Snapshot())
	var events []Event
	for _, record := range pending {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		result, err := p.categorizer.Categorize(ctx, record.PreprintID.DOI)
		if err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"review_request_id": record.ID.String(),
				"doi":               record.PreprintID.DOI,
			}).Warn("categorize review request")
			continue
		}
		if err := p.store.SaveTopics(ctx, result.Topics); err != nil {
			return 0, fmt.Errorf("save topics: %w", err)
		}
		topics := make([]openalex.TopicID, 0, len(result.Topics))
		for _, topic := range result.Topics {
			topics = append(topics, topic.ID)
		}
		events = append(events, Categorized{
			ReviewRequestID: record.ID,
			Language:        result.Language,
			Topics:          topics,
		})
	}
	if err := p.Record(ctx, events...); err != nil {
		return 0, err
	}
	return len(events), nil
}

// Start refreshes once, then runs the refresh and categorization jobs on
// schedule (a cron expression such as "@every 5m") until Stop.
func (p *Projector) Start(ctx context.Context, schedule string) error {
	if err := p.Refresh(ctx); err != nil {
		return err
	}
	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if p.categorizer != nil {
			if n, err := p.CategorizePending(jobCtx); err != nil {
				p.logger.WithError(err).Warn("categorize review requests")
			} else if n > 0 {
				p.logger.WithField("count", n).Info("categorized review requests")
			}
		}
		if err := p.Refresh(jobCtx); err != nil {
			p.logger.WithError(err).Warn("refresh review requests")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule review request jobs: %w", err)
	}
	p.cronMu.Lock()
	p.cron = runner
	p.cronMu.Unlock()
	runner.Start()
	return nil
}

// Stop halts scheduled jobs and waits for a running job to finish.
func (p *Projector) Stop() {
	p.cronMu.Lock()
	runner := p.cron
	p.cron = nil
	p.cronMu.Unlock()
	if runner != nil {
		<-runner.Stop().Done()
	}
}
