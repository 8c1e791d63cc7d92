package paging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session owns one policy instance on behalf of a caller
// It validates input, serializes access to the policy, and handles
// logging, metrics, invariant checks and snapshots around it
type Session struct {
	id      string
	config  *Config
	policy  Policy
	logger  *slog.Logger
	metrics *Metrics
	store   *SnapshotStore
	mu      sync.Mutex
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics shares a metrics tracker with the session
func WithMetrics(metrics *Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = metrics
	}
}

// WithSnapshotStore persists a snapshot on initialize and before every reset
func WithSnapshotStore(store *SnapshotStore) SessionOption {
	return func(s *Session) {
		s.store = store
	}
}

// NewSession validates config and creates the policy it names
func NewSession(id string, config *Config, opts ...SessionOption) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	algorithm, err := ParseAlgorithm(config.Algorithm)
	if err != nil {
		return nil, err
	}
	policy, err := NewPolicy(algorithm, config.FrameCount)
	if err != nil {
		return nil, err
	}
	if l, ok := policy.(historyLimiter); ok {
		l.limitHistory(config.HistoryLimit)
	}

	s := &Session{
		id:     id,
		config: config.Clone(),
		policy: policy,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = discardLogger()
	}
	s.logger = s.logger.With(
		slog.String("session", id),
		slog.String("algorithm", string(algorithm)),
	)
	if s.metrics == nil && s.config.EnableMetrics {
		s.metrics = NewMetrics()
	}

	s.logger.Info("session initialized", slog.Int("frames", config.FrameCount))

	if _, err := s.snapshotLocked("initialize"); err != nil {
		return nil, err
	}

	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Algorithm returns the policy name
func (s *Session) Algorithm() Algorithm {
	return s.policy.Algorithm()
}

// Metrics returns the metrics tracker, nil when metrics are disabled
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Access validates the request and forwards it to the policy
func (s *Session) Access(processID string, pageNumber int) (AccessResult, error) {
	const op = "Session.Access"

	if processID == "" {
		return AccessResult{}, ErrInvalidProcessID(op)
	}
	if pageNumber < 0 {
		return AccessResult{}, ErrInvalidPageNumber(op, pageNumber)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.accessLocked(processID, pageNumber)
}

// Run feeds accesses in order, stopping at the first error or when ctx is done
// Results for the accesses already applied are returned along with the error
func (s *Session) Run(ctx context.Context, accesses []Access) ([]AccessResult, error) {
	const op = "Session.Run"

	for i, a := range accesses {
		if a.ProcessID == "" {
			return nil, fmt.Errorf("access %d: %w", i, ErrInvalidProcessID(op))
		}
		if a.PageNumber < 0 {
			return nil, fmt.Errorf("access %d: %w", i, ErrInvalidPageNumber(op, a.PageNumber))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]AccessResult, 0, len(accesses))
	for _, a := range accesses {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.accessLocked(a.ProcessID, a.PageNumber)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// State returns the policy state; history holds at most Config.HistoryLimit entries
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.policy.State()
}

// Reset snapshots the current state (when a store is configured) and empties the policy
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.snapshotLocked("reset"); err != nil {
		return err
	}

	s.policy.Reset()
	if s.metrics != nil {
		s.metrics.RecordReset()
	}
	s.logger.Info("session reset")

	return s.checkLocked("Session.Reset")
}

// RemoveProcess frees every frame held by processID
func (s *Session) RemoveProcess(processID string) error {
	if processID == "" {
		return ErrInvalidProcessID("Session.RemoveProcess")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.policy.Occupied()
	s.policy.RemoveProcess(processID)
	removed := before - s.policy.Occupied()

	if s.metrics != nil {
		s.metrics.RecordRemovedPages(removed)
	}
	s.logger.Info("process removed",
		slog.String("process", processID),
		slog.Int("pages_freed", removed),
	)

	return s.checkLocked("Session.RemoveProcess")
}

// Snapshot persists the current state with the given reason
// Returns the snapshot name, or "" when no store is configured
func (s *Session) Snapshot(reason string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked(reason)
}

func (s *Session) accessLocked(processID string, pageNumber int) (AccessResult, error) {
	start := time.Now()
	res := s.policy.AccessPage(processID, pageNumber)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordAccess(res, elapsed)
	}

	if res.PageFault {
		attrs := []any{
			slog.String("process", processID),
			slog.Int("page", pageNumber),
			slog.Int("frame", res.FrameIndex),
		}
		if res.Replaced != nil {
			attrs = append(attrs, slog.String("evicted", res.Replaced.String()))
		}
		s.logger.Debug("page fault", attrs...)
	}

	return res, s.checkLocked("Session.Access")
}

func (s *Session) snapshotLocked(reason string) (string, error) {
	if s.store == nil {
		return "", nil
	}

	snap := &Snapshot{
		SessionID:  s.id,
		Algorithm:  s.policy.Algorithm(),
		FrameCount: s.policy.FrameCount(),
		Reason:     reason,
		TakenAt:    time.Now().UTC(),
		State:      s.policy.State(),
	}
	name, err := s.store.Save(snap)
	if err != nil {
		s.logger.Error("snapshot failed", slog.String("reason", reason), slog.Any("error", err))
		return "", err
	}

	if s.metrics != nil {
		s.metrics.RecordSnapshot()
	}
	s.logger.Info("snapshot written", slog.String("reason", reason), slog.String("name", name))
	return name, nil
}

func (s *Session) checkLocked(op string) error {
	if !s.config.CheckInvariants {
		return nil
	}
	if err := s.policy.CheckInvariants(); err != nil {
		s.logger.Error("invariant violation", slog.String("op", op), slog.Any("error", err))
		return err
	}
	return nil
}
