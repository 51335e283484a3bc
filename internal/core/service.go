// Package core runs the user-facing flows: persist the raw record, ask for
// qualitative feedback, then update streaks, points, achievements and
// rewards. Secondary effects are logged on failure and never fail the save.
package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/vibenote-server/internal/analyst"
	"github.com/mrwolf/vibenote-server/internal/db"
	"github.com/mrwolf/vibenote-server/internal/events"
	"github.com/mrwolf/vibenote-server/internal/export"
	"github.com/mrwolf/vibenote-server/internal/gamification"
	"github.com/mrwolf/vibenote-server/internal/metrics"
)

// Points per activity
const (
	MoodPoints    = 5
	JournalPoints = 10
)

// Options wires a Service. Store and Analyzer are required.
type Options struct {
	Store    *db.DB
	Analyzer *analyst.Analyzer
	Tracker  *gamification.Tracker
	Exporter *export.Writer
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// Service implements every user flow on top of the store and the analyzer
type Service struct {
	store    *db.DB
	analyzer *analyst.Analyzer
	tracker  *gamification.Tracker
	exporter *export.Writer
	events   events.Publisher
	metrics  *metrics.Metrics
	clock    clockwork.Clock
	logger   *slog.Logger

	// progressMu serialises read-modify-write cycles on user_stats
	progressMu sync.Mutex

	// inflight holds ids of journal entries whose insights are being generated
	inflightMu sync.Mutex
	inflight   map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, events.Event) {}

// New creates a service. Background insight tasks live until Close.
func New(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracker == nil {
		opts.Tracker = gamification.NewTracker(opts.Clock, time.UTC)
	}
	if opts.Events == nil {
		opts.Events = nopPublisher{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:    opts.Store,
		analyzer: opts.Analyzer,
		tracker:  opts.Tracker,
		exporter: opts.Exporter,
		events:   opts.Events,
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		logger:   opts.Logger,
		inflight: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Analyzer exposes the analyzer for health reporting
func (s *Service) Analyzer() *analyst.Analyzer {
	return s.analyzer
}

// Close cancels in-flight insight tasks and waits for them to stop
func (s *Service) Close() {
	s.cancel()
	s.tasks.Wait()
}

// claimEntry marks an entry as having insight generation in progress. It
// returns false if someone else already holds it.
func (s *Service) claimEntry(id string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) releaseEntry(id string) {
	s.inflightMu.Lock()
	delete(s.inflight, id)
	s.inflightMu.Unlock()
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return min(limit, maxPageSize)
}

// nonNil keeps empty lists encoding as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// dayBounds returns the start of today and tomorrow in the tracker's zone
func (s *Service) dayBounds() (time.Time, time.Time) {
	now := s.clock.Now().In(s.tracker.Location())
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.tracker.Location())
	return start, start.AddDate(0, 0, 1)
}
