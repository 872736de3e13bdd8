// Package batch holds the batch session state and the sequential parse driver.
//
// A Session is an ordered list of items owned by one controller. Item state
// only changes through the transition methods (begin, complete, fail), which
// the driver's worker calls. Reset and ResetResults bump the session epoch and
// cancel the session context, so results that arrive afterwards are dropped.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"addrparser/internal/domain"
)

// msgParseFailed is stored on failed items and shown to users as-is.
const msgParseFailed = "Không thể phân tích địa chỉ"

// ticket identifies one in-flight attempt. It is only valid while the session
// epoch is unchanged.
type ticket struct {
	itemID uuid.UUID
	epoch  uint64
}

// Session is one batch of parse requests. Use Driver.NewSession to create one;
// it starts the session's worker.
type Session struct {
	mu         sync.Mutex
	id         uuid.UUID
	kind       domain.SessionKind
	createdAt  time.Time
	lastActive time.Time
	items      []domain.BatchItem
	index      map[uuid.UUID]int
	epoch      uint64
	running    bool
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc

	jobs    chan job
	closing chan struct{}
	done    chan struct{}
	now     func() time.Time
}

func newSession(kind domain.SessionKind, now func() time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	t := now()
	return &Session{
		id:         uuid.New(),
		kind:       kind,
		createdAt:  t,
		lastActive: t,
		index:      make(map[uuid.UUID]int),
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(chan job),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		now:        now,
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Kind returns the workflow the session belongs to.
func (s *Session) Kind() domain.SessionKind { return s.kind }

// Add appends pending items for reqs and returns them.
func (s *Session) Add(reqs []domain.ParseRequest) ([]domain.BatchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	return s.addLocked(reqs), nil
}

// Replace clears the session and adds reqs, as one step.
func (s *Session) Replace(reqs []domain.ParseRequest) ([]domain.BatchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	s.resetLocked()
	return s.addLocked(reqs), nil
}

func (s *Session) addLocked(reqs []domain.ParseRequest) []domain.BatchItem {
	now := s.now()
	added := make([]domain.BatchItem, 0, len(reqs))
	for _, req := range reqs {
		item := domain.BatchItem{
			ID:        uuid.New(),
			Seq:       len(s.items) + 1,
			Request:   req,
			Status:    domain.ItemStatusPending,
			UpdatedAt: now,
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
		added = append(added, copyItem(&item))
	}
	s.lastActive = now
	return added
}

// Reset discards every item. In-flight calls are canceled and their results,
// if they still arrive, are ignored.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked()
}

// ResetResults returns every item to Pending and drops its result, keeping
// the items, their order and ids. In-flight calls are canceled and their
// results, if they still arrive, are ignored.
func (s *Session) ResetResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.epoch++
	now := s.now()
	for i := range s.items {
		s.items[i].Status = domain.ItemStatusPending
		s.items[i].Result = nil
		s.items[i].Error = ""
		s.items[i].UpdatedAt = now
	}
	s.lastActive = now
}

func (s *Session) resetLocked() {
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.epoch++
	s.items = nil
	s.index = make(map[uuid.UUID]int)
	s.lastActive = s.now()
}

// Close cancels in-flight work and stops the session worker. It is safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.epoch++
	s.cancel()
	close(s.closing)
	s.mu.Unlock()
	<-s.done
}

// Items returns a copy of all items in session order.
func (s *Session) Items() []domain.BatchItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Session) itemsLocked() []domain.BatchItem {
	out := make([]domain.BatchItem, len(s.items))
	for i := range s.items {
		out[i] = copyItem(&s.items[i])
	}
	return out
}

// Item returns a copy of one item.
func (s *Session) Item(id uuid.UUID) (domain.BatchItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[id]
	if !ok {
		return domain.BatchItem{}, false
	}
	return copyItem(&s.items[idx]), true
}

// Snapshot returns a copy of the whole session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.itemsLocked()
	return domain.SessionSnapshot{
		ID:         s.id,
		Kind:       s.kind,
		Running:    s.running,
		CreatedAt:  s.createdAt,
		LastActive: s.lastActive,
		Counts:     domain.CountStatuses(items),
		Items:      items,
	}
}

// Len returns the number of items.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// LastActive returns the last time the session was used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Running reports whether a process-all run is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) tryStartRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.running {
		return domain.ErrBatchRunning
	}
	s.running = true
	return nil
}

func (s *Session) endRun() {
	s.mu.Lock()
	s.running = false
	s.lastActive = s.now()
	s.mu.Unlock()
}

// runContext returns the context that is canceled on the next Reset or Close.
func (s *Session) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// eligibleIDs returns, in session order, the ids a process-all run should visit.
func (s *Session) eligibleIDs(retryFailed bool) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for i := range s.items {
		if batchEligible(s.items[i].Status, retryFailed) {
			ids = append(ids, s.items[i].ID)
		}
	}
	return ids
}

// begin moves an item to Processing. It refuses items that are already
// Processing and items the caller's eligibility check rejects.
func (s *Session) begin(id uuid.UUID, eligible func(domain.ItemStatus) bool) (ticket, domain.ParseRequest, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.index[id]
	if s.closed || !ok {
		return ticket{}, domain.ParseRequest{}, nil, false
	}
	item := &s.items[idx]
	if item.Status == domain.ItemStatusProcessing || !eligible(item.Status) {
		return ticket{}, domain.ParseRequest{}, nil, false
	}
	item.Status = domain.ItemStatusProcessing
	item.Error = ""
	item.UpdatedAt = s.now()
	s.lastActive = item.UpdatedAt
	return ticket{itemID: id, epoch: s.epoch}, item.Request, s.ctx, true
}

// complete records a successful parse. Stale tickets are ignored.
func (s *Session) complete(t ticket, res *domain.ParseResult) (domain.BatchItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.attemptLocked(t)
	if item == nil {
		return domain.BatchItem{}, false
	}
	r := *res
	item.Status = domain.ItemStatusDone
	item.Result = &r
	item.Error = ""
	item.UpdatedAt = s.now()
	return copyItem(item), true
}

// fail records a failed parse and drops any previous result. Stale tickets
// are ignored.
func (s *Session) fail(t ticket, msg string) (domain.BatchItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.attemptLocked(t)
	if item == nil {
		return domain.BatchItem{}, false
	}
	item.Status = domain.ItemStatusFailed
	item.Result = nil
	item.Error = msg
	item.UpdatedAt = s.now()
	return copyItem(item), true
}

func (s *Session) attemptLocked(t ticket) *domain.BatchItem {
	if s.closed || t.epoch != s.epoch {
		return nil
	}
	idx, ok := s.index[t.itemID]
	if !ok {
		return nil
	}
	item := &s.items[idx]
	if item.Status != domain.ItemStatusProcessing {
		return nil
	}
	return item
}

func batchEligible(st domain.ItemStatus, retryFailed bool) bool {
	return st == domain.ItemStatusPending || (retryFailed && st == domain.ItemStatusFailed)
}

func copyItem(it *domain.BatchItem) domain.BatchItem {
	out := *it
	if it.Result != nil {
		r := *it.Result
		out.Result = &r
	}
	return out
}
