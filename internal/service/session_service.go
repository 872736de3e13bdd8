package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"addrparser/internal/batch"
	"addrparser/internal/domain"
	"addrparser/internal/intake"
	"addrparser/internal/port"
)

// SessionConfig holds limits for batch sessions.
type SessionConfig struct {
	MaxItems     int
	MaxFileBytes int64
	SessionTTL   time.Duration
}

// SessionService owns the in-memory batch sessions and drives their workflow.
type SessionService interface {
	Create(ctx context.Context, kind domain.SessionKind) (*domain.SessionSnapshot, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SessionSnapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Clear drops every item. Results of calls already in flight are discarded.
	Clear(ctx context.Context, id uuid.UUID) (*domain.SessionSnapshot, error)
	// ResetResults sets every item back to Pending and drops its result,
	// keeping the loaded list so a process-all run parses it again.
	ResetResults(ctx context.Context, id uuid.UUID) (*domain.SessionSnapshot, error)
	// LoadText adds one request per non-blank line of text to a manual session.
	// Without appendItems the session's items are replaced.
	LoadText(ctx context.Context, id uuid.UUID, text string, appendItems bool) (*domain.SessionSnapshot, error)
	// LoadFile decodes an uploaded text or spreadsheet file into a manual
	// session. A file that cannot be decoded leaves the session untouched.
	LoadFile(ctx context.Context, id uuid.UUID, name string, r io.Reader, appendItems bool) (*domain.SessionSnapshot, error)
	// LoadEmployeesByDate replaces an employee session's items with the
	// employees that joined on date. A directory failure leaves the session empty.
	LoadEmployeesByDate(ctx context.Context, id uuid.UUID, date string) (*domain.SessionSnapshot, error)
	// LoadEmployeeByID replaces an employee session's items with one employee.
	// When no employee matches, the session is left empty and
	// domain.ErrEmployeeNotFound is returned.
	LoadEmployeeByID(ctx context.Context, id uuid.UUID, personID string) (*domain.SessionSnapshot, error)
	// ProcessAll starts a process-all run in the background and returns once
	// the run is claimed.
	ProcessAll(ctx context.Context, id uuid.UUID, opts batch.RunOptions) error
	// ProcessItem parses one item and waits for the outcome.
	ProcessItem(ctx context.Context, id, itemID uuid.UUID) (*domain.BatchItem, error)
	Export(ctx context.Context, id uuid.UUID) (*ExportFile, error)
	// EvictIdle closes sessions idle since before now minus the session TTL.
	// Sessions with an active run are kept.
	EvictIdle(now time.Time) int
	// Shutdown stops every run and closes all sessions.
	Shutdown()
}

type sessionService struct {
	driver    *batch.Driver
	directory port.EmployeeDirectory
	exports   ExportService
	notifier  port.BatchNotifier
	cfg       SessionConfig

	mu       sync.RWMutex
	sessions map[uuid.UUID]*batch.Session

	runCtx    context.Context
	cancelRun context.CancelFunc
	runs      sync.WaitGroup
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	driver *batch.Driver,
	directory port.EmployeeDirectory,
	exports ExportService,
	notifier port.BatchNotifier,
	cfg SessionConfig,
) SessionService {
	runCtx, cancel := context.WithCancel(context.Background())
	return &sessionService{
		driver:    driver,
		directory: directory,
		exports:   exports,
		notifier:  notifier,
		cfg:       cfg,
		sessions:  make(map[uuid.UUID]*batch.Session),
		runCtx:    runCtx,
		cancelRun: cancel,
	}
}

func (s *sessionService) Create(_ context.Context, kind domain.SessionKind) (*domain.SessionSnapshot, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidSessionKind
	}
	sess := s.driver.NewSession(kind)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	log.Info().Str("session_id", sess.ID().String()).Str("kind", string(kind)).Msg("sessionService.Create: session created")
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) lookup(id uuid.UUID) (*batch.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) lookupKind(id uuid.UUID, kind domain.SessionKind) (*batch.Session, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if sess.Kind() != kind {
		return nil, domain.ErrSessionKindMismatch
	}
	return sess, nil
}

func (s *sessionService) Get(_ context.Context, id uuid.UUID) (*domain.SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.Touch()
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Close()
	log.Info().Str("session_id", id.String()).Msg("sessionService.Delete: session closed")
	return nil
}

func (s *sessionService) Clear(_ context.Context, id uuid.UUID) (*domain.SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.Reset()
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) ResetResults(_ context.Context, id uuid.UUID) (*domain.SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.ResetResults()
	log.Info().Str("session_id", id.String()).Msg("sessionService.ResetResults: results cleared")
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) LoadText(_ context.Context, id uuid.UUID, text string, appendItems bool) (*domain.SessionSnapshot, error) {
	sess, err := s.lookupKind(id, domain.SessionKindManual)
	if err != nil {
		return nil, err
	}
	return s.load(sess, intake.FromText(text), appendItems)
}

func (s *sessionService) LoadFile(_ context.Context, id uuid.UUID, name string, r io.Reader, appendItems bool) (*domain.SessionSnapshot, error) {
	sess, err := s.lookupKind(id, domain.SessionKindManual)
	if err != nil {
		return nil, err
	}
	lines, err := intake.ReadFile(name, r, s.cfg.MaxFileBytes)
	if err != nil {
		if errors.Is(err, domain.ErrDecodeFailed) {
			log.Warn().Err(err).Str("session_id", id.String()).Str("file", name).
				Msg("sessionService.LoadFile: decode failed")
		}
		return nil, err
	}
	return s.load(sess, intake.FromLines(lines), appendItems)
}

// load adds reqs to sess after checking the input is non-empty and fits.
func (s *sessionService) load(sess *batch.Session, reqs []domain.ParseRequest, appendItems bool) (*domain.SessionSnapshot, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrEmptyInput
	}
	total := len(reqs)
	if appendItems {
		total += sess.Len()
	}
	if total > s.cfg.MaxItems {
		return nil, domain.ErrTooManyItems
	}

	var err error
	if appendItems {
		_, err = sess.Add(reqs)
	} else {
		_, err = sess.Replace(reqs)
	}
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) LoadEmployeesByDate(ctx context.Context, id uuid.UUID, date string) (*domain.SessionSnapshot, error) {
	sess, err := s.lookupKind(id, domain.SessionKindEmployee)
	if err != nil {
		return nil, err
	}
	day, err := ParseIntakeDate(date)
	if err != nil {
		return nil, err
	}

	employees, err := s.directory.ListByIntakeDate(ctx, day)
	if err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Str("date", date).
			Msg("sessionService.LoadEmployeesByDate: directory call failed")
		sess.Reset()
		return nil, directoryError(err)
	}
	if len(employees) > s.cfg.MaxItems {
		sess.Reset()
		return nil, domain.ErrTooManyItems
	}
	if _, err := sess.Replace(intake.FromEmployees(employees)); err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) LoadEmployeeByID(ctx context.Context, id uuid.UUID, personID string) (*domain.SessionSnapshot, error) {
	sess, err := s.lookupKind(id, domain.SessionKindEmployee)
	if err != nil {
		return nil, err
	}
	pid, err := ParsePersonID(personID)
	if err != nil {
		return nil, err
	}

	emp, err := s.directory.GetByID(ctx, pid)
	if err != nil {
		sess.Reset()
		if errors.Is(err, domain.ErrEmployeeNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("session_id", id.String()).Int("person_id", pid).
			Msg("sessionService.LoadEmployeeByID: directory call failed")
		return nil, directoryError(err)
	}
	if _, err := sess.Replace(intake.FromEmployees([]domain.Employee{*emp})); err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) ProcessAll(_ context.Context, id uuid.UUID, opts batch.RunOptions) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	// The run outlives the request that started it.
	s.runs.Add(1)
	err = s.driver.StartAll(s.runCtx, sess, opts, func(summary domain.RunSummary) {
		defer s.runs.Done()
		s.notify(summary)
	})
	if err != nil {
		s.runs.Done()
		return err
	}
	return nil
}

func (s *sessionService) notify(summary domain.RunSummary) {
	if summary.Attempted == 0 || s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.notifier.NotifyBatchCompleted(ctx, summary); err != nil {
		log.Error().Err(err).Str("session_id", summary.SessionID.String()).
			Msg("sessionService.notify: batch notification failed")
	}
}

func (s *sessionService) ProcessItem(ctx context.Context, id, itemID uuid.UUID) (*domain.BatchItem, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	item, err := s.driver.ProcessOne(ctx, sess, itemID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *sessionService) Export(ctx context.Context, id uuid.UUID) (*ExportFile, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.Touch()
	snap := sess.Snapshot()
	return s.exports.Export(ctx, &snap)
}

func (s *sessionService) EvictIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.SessionTTL)

	var idle []*batch.Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.Running() || sess.LastActive().After(cutoff) {
			continue
		}
		idle = append(idle, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
		log.Info().Str("session_id", sess.ID().String()).Msg("sessionService.EvictIdle: session evicted")
	}
	return len(idle)
}

func (s *sessionService) Shutdown() {
	s.cancelRun()

	s.mu.Lock()
	all := make([]*batch.Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
	s.runs.Wait()
}
