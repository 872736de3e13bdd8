package batch_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addrparser/internal/batch"
	"addrparser/internal/domain"
	"addrparser/internal/xlsxexport"
)

// fakeParser records calls and tracks how many are in flight at once.
type fakeParser struct {
	mu          sync.Mutex
	calls       []string
	starts      []time.Time
	ends        []time.Time
	inFlight    int
	maxInFlight int
	fail        map[string]bool
	nilResult   map[string]bool
	level       domain.SuccessLevel
	delay       time.Duration
	// gate, when set, blocks every call until it is closed. Calls ignore
	// context cancellation while blocked, like a slow remote procedure.
	gate   chan struct{}
	onCall func(address string)
}

func newFakeParser() *fakeParser {
	return &fakeParser{
		fail:      map[string]bool{},
		nilResult: map[string]bool{},
		level:     domain.SuccessLevelFull,
	}
}

func (p *fakeParser) Parse(_ context.Context, address string) (*domain.ParseResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, address)
	p.starts = append(p.starts, time.Now())
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	onCall, gate, delay, level := p.onCall, p.gate, p.delay, p.level
	fail, nilResult := p.fail[address], p.nilResult[address]
	p.mu.Unlock()

	if onCall != nil {
		onCall(address)
	}
	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	p.mu.Lock()
	p.inFlight--
	p.ends = append(p.ends, time.Now())
	p.mu.Unlock()

	if fail {
		return nil, errors.New("connection reset by peer")
	}
	if nilResult {
		return nil, nil
	}
	return &domain.ParseResult{
		OriginalAddress:   address,
		NewAddress:        strings.ToUpper(address),
		ParseSuccessLevel: level,
	}, nil
}

func (p *fakeParser) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakeParser) MaxInFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxInFlight
}

func newSessionWith(t *testing.T, d *batch.Driver, kind domain.SessionKind, addrs ...string) (*batch.Session, []domain.BatchItem) {
	t.Helper()
	s := d.NewSession(kind)
	t.Cleanup(s.Close)
	reqs := make([]domain.ParseRequest, len(addrs))
	for i, a := range addrs {
		reqs[i] = domain.ParseRequest{RawAddress: a}
	}
	items, err := s.Add(reqs)
	require.NoError(t, err)
	return s, items
}

func statuses(items []domain.BatchItem) []domain.ItemStatus {
	out := make([]domain.ItemStatus, len(items))
	for i := range items {
		out[i] = items[i].Status
	}
	return out
}

func waitForStatus(t *testing.T, s *batch.Session, id uuid.UUID, want domain.ItemStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		it, ok := s.Item(id)
		return ok && it.Status == want
	}, 2*time.Second, 2*time.Millisecond)
}

func TestProcessAll_SequentialInOrderWithPacing(t *testing.T) {
	p := newFakeParser()
	pace := 20 * time.Millisecond
	d := batch.NewDriver(p, batch.DriverConfig{PaceDelay: pace})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c", "d")

	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, p.Calls())
	assert.Equal(t, 1, p.MaxInFlight())
	assert.Equal(t, 4, summary.Attempted)
	assert.Equal(t, 4, summary.Done)
	assert.False(t, summary.Canceled)

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 1; i < len(p.starts); i++ {
		gap := p.starts[i].Sub(p.ends[i-1])
		assert.GreaterOrEqual(t, gap, pace, "call %d started too soon", i)
	}
}

func TestProcessAll_FailureDoesNotStopRun(t *testing.T) {
	p := newFakeParser()
	p.fail["b"] = true
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c")

	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	items := s.Items()
	assert.Equal(t, []domain.ItemStatus{domain.ItemStatusDone, domain.ItemStatusFailed, domain.ItemStatusDone}, statuses(items))
	assert.Nil(t, items[1].Result)
	assert.NotEmpty(t, items[1].Error)
	assert.NotContains(t, items[1].Error, "connection reset", "internal detail must not leak")
	require.NotNil(t, items[2].Result)
	assert.Equal(t, "C", items[2].Result.NewAddress)
	assert.Equal(t, 2, summary.Done)
	assert.Equal(t, 1, summary.Failed)

	rows := xlsxexport.BuildReport(domain.SessionKindManual, items)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].OriginalAddress)
	assert.Equal(t, "c", rows[1].OriginalAddress)
}

func TestProcessAll_NilResultIsFailure(t *testing.T) {
	p := newFakeParser()
	p.nilResult["a"] = true
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a")

	_, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusFailed, s.Items()[0].Status)
}

func TestProcessAll_SkipsItemWithoutAddress(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{})
	s := d.NewSession(domain.SessionKindEmployee)
	t.Cleanup(s.Close)
	_, err := s.Add([]domain.ParseRequest{
		{Employee: &domain.Employee{ID: 1, Name: "No Address"}},
		{Employee: &domain.Employee{ID: 2, Name: "Has Address", StayingAddress: "9 Điện Biên Phủ"}},
	})
	require.NoError(t, err)

	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"9 Điện Biên Phủ"}, p.Calls())
	assert.Equal(t, []domain.ItemStatus{domain.ItemStatusPending, domain.ItemStatusDone}, statuses(s.Items()))
	assert.Equal(t, 1, summary.Attempted)
	assert.Zero(t, summary.Failed)
}

func TestProcessOne_ItemWithoutAddressIsLeftPending(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{})
	s := d.NewSession(domain.SessionKindEmployee)
	t.Cleanup(s.Close)
	items, err := s.Add([]domain.ParseRequest{{Employee: &domain.Employee{ID: 1, StayingAddress: "  "}}})
	require.NoError(t, err)

	item, err := d.ProcessOne(context.Background(), s, items[0].ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusPending, item.Status)
	assert.Empty(t, item.Error)
	assert.Empty(t, p.Calls())
}

func TestProcessAll_SkipsDoneAndFailedUnlessRetrying(t *testing.T) {
	p := newFakeParser()
	p.fail["b"] = true
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b")

	_, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})
	require.NoError(t, err)
	require.Len(t, p.Calls(), 2)

	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, summary.Attempted)
	assert.Len(t, p.Calls(), 2)

	p.mu.Lock()
	p.fail["b"] = false
	p.mu.Unlock()
	summary, err = d.ProcessAll(context.Background(), s, batch.RunOptions{RetryFailed: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, []string{"a", "b", "b"}, p.Calls())
	assert.Equal(t, []domain.ItemStatus{domain.ItemStatusDone, domain.ItemStatusDone}, statuses(s.Items()))
}

func TestProcessAll_RejectsSecondRun(t *testing.T) {
	p := newFakeParser()
	p.gate = make(chan struct{})
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a", "b")

	done := make(chan domain.RunSummary, 1)
	go func() {
		summary, _ := d.ProcessAll(context.Background(), s, batch.RunOptions{})
		done <- summary
	}()
	waitForStatus(t, s, items[0].ID, domain.ItemStatusProcessing)
	assert.True(t, s.Running())

	_, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})
	assert.ErrorIs(t, err, domain.ErrBatchRunning)

	close(p.gate)
	summary := <-done
	assert.Equal(t, 2, summary.Done)
	assert.False(t, s.Running())
}

func TestProcessAll_ContextCancelStopsRun(t *testing.T) {
	p := newFakeParser()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.onCall = func(string) { cancel() }
	d := batch.NewDriver(p, batch.DriverConfig{PaceDelay: time.Second})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c")

	start := time.Now()
	summary, err := d.ProcessAll(ctx, s, batch.RunOptions{})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, summary.Canceled)
	assert.Equal(t, []string{"a"}, p.Calls())
	waitForStatus(t, s, items[0].ID, domain.ItemStatusDone)
	got := s.Items()
	assert.Equal(t, domain.ItemStatusPending, got[1].Status)
	assert.Equal(t, domain.ItemStatusPending, got[2].Status)
}

func TestStartAll_ReportsSummary(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b")

	done := make(chan domain.RunSummary, 1)
	err := d.StartAll(context.Background(), s, batch.RunOptions{}, func(rs domain.RunSummary) { done <- rs })
	require.NoError(t, err)

	select {
	case summary := <-done:
		assert.Equal(t, s.ID(), summary.SessionID)
		assert.Equal(t, 2, summary.Done)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestProcessOne_OverwritesDoneResult(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a", "b")

	_, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})
	require.NoError(t, err)
	before := s.Items()

	p.mu.Lock()
	p.level = domain.SuccessLevelPartial
	p.mu.Unlock()
	item, err := d.ProcessOne(context.Background(), s, items[0].ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusDone, item.Status)
	assert.Equal(t, domain.SuccessLevelPartial, item.Result.ParseSuccessLevel)
	after := s.Items()
	assert.Equal(t, domain.SuccessLevelPartial, after[0].Result.ParseSuccessLevel)
	assert.Equal(t, before[1], after[1], "other items are unchanged")
}

func TestProcessOne_FailureClearsPreviousResult(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a")

	_, err := d.ProcessOne(context.Background(), s, items[0].ID)
	require.NoError(t, err)

	p.mu.Lock()
	p.fail["a"] = true
	p.mu.Unlock()
	item, err := d.ProcessOne(context.Background(), s, items[0].ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusFailed, item.Status)
	assert.Nil(t, item.Result)
}

func TestProcessOne_ProcessingItemIsNotResubmitted(t *testing.T) {
	p := newFakeParser()
	p.gate = make(chan struct{})
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a")

	first := make(chan domain.BatchItem, 1)
	go func() {
		item, _ := d.ProcessOne(context.Background(), s, items[0].ID)
		first <- item
	}()
	waitForStatus(t, s, items[0].ID, domain.ItemStatusProcessing)

	item, err := d.ProcessOne(context.Background(), s, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusProcessing, item.Status)

	close(p.gate)
	assert.Equal(t, domain.ItemStatusDone, (<-first).Status)
	assert.Len(t, p.Calls(), 1)
}

func TestProcessOne_UnknownItem(t *testing.T) {
	d := batch.NewDriver(newFakeParser(), batch.DriverConfig{})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a")

	_, err := d.ProcessOne(context.Background(), s, uuid.New())

	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestProcessOne_DuringBatchNeverOverlaps(t *testing.T) {
	p := newFakeParser()
	p.delay = 3 * time.Millisecond
	d := batch.NewDriver(p, batch.DriverConfig{PaceDelay: time.Millisecond})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c", "d", "e")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})
		assert.NoError(t, err)
	}()
	for i := 0; i < 5; i++ {
		_, err := d.ProcessOne(context.Background(), s, items[4].ID)
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, 1, p.MaxInFlight())
	for _, it := range s.Items() {
		assert.Equal(t, domain.ItemStatusDone, it.Status)
	}
}

func TestReset_DiscardsLateResult(t *testing.T) {
	p := newFakeParser()
	p.gate = make(chan struct{})
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a")

	errCh := make(chan error, 1)
	go func() {
		_, err := d.ProcessOne(context.Background(), s, items[0].ID)
		errCh <- err
	}()
	waitForStatus(t, s, items[0].ID, domain.ItemStatusProcessing)

	s.Reset()
	_, err := s.Add([]domain.ParseRequest{{RawAddress: "fresh"}})
	require.NoError(t, err)
	close(p.gate)

	assert.ErrorIs(t, <-errCh, domain.ErrItemNotFound)
	got := s.Items()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Request.RawAddress)
	assert.Equal(t, domain.ItemStatusPending, got[0].Status)
	assert.Nil(t, got[0].Result)
}

func TestReset_StopsRunningBatch(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{PaceDelay: time.Second})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c")
	p.onCall = func(string) { go s.Reset() }

	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	assert.True(t, summary.Canceled)
	assert.Equal(t, []string{"a"}, p.Calls())
	assert.Zero(t, s.Len())
}

func TestClose_RejectsFurtherWork(t *testing.T) {
	d := batch.NewDriver(newFakeParser(), batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a")

	s.Close()

	_, err := d.ProcessOne(context.Background(), s, items[0].ID)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = d.ProcessAll(context.Background(), s, batch.RunOptions{})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = s.Add([]domain.ParseRequest{{RawAddress: "b"}})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestResetResults_RerunsWholeListInOrder(t *testing.T) {
	p := newFakeParser()
	p.fail["b"] = true
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindEmployee, "a", "b", "c")

	_, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})
	require.NoError(t, err)

	s.ResetResults()

	got := s.Items()
	require.Len(t, got, 3)
	for i := range got {
		assert.Equal(t, items[i].ID, got[i].ID)
		assert.Equal(t, items[i].Seq, got[i].Seq)
		assert.Equal(t, domain.ItemStatusPending, got[i].Status)
		assert.Nil(t, got[i].Result)
		assert.Empty(t, got[i].Error)
	}

	p.mu.Lock()
	delete(p.fail, "b")
	p.mu.Unlock()
	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, p.Calls())
	assert.Equal(t, 3, summary.Done)
	assert.Equal(t, []domain.ItemStatus{domain.ItemStatusDone, domain.ItemStatusDone, domain.ItemStatusDone}, statuses(s.Items()))
}

func TestResetResults_DiscardsLateResult(t *testing.T) {
	p := newFakeParser()
	p.gate = make(chan struct{})
	d := batch.NewDriver(p, batch.DriverConfig{})
	s, items := newSessionWith(t, d, domain.SessionKindManual, "a")

	done := make(chan domain.BatchItem, 1)
	go func() {
		item, _ := d.ProcessOne(context.Background(), s, items[0].ID)
		done <- item
	}()
	waitForStatus(t, s, items[0].ID, domain.ItemStatusProcessing)

	s.ResetResults()
	close(p.gate)
	returned := <-done

	assert.Equal(t, items[0].ID, returned.ID)
	assert.Equal(t, domain.ItemStatusPending, returned.Status)
	got, ok := s.Item(items[0].ID)
	require.True(t, ok)
	assert.Equal(t, domain.ItemStatusPending, got.Status)
	assert.Nil(t, got.Result)
}

func TestResetResults_StopsRunningBatch(t *testing.T) {
	p := newFakeParser()
	d := batch.NewDriver(p, batch.DriverConfig{PaceDelay: time.Second})
	s, _ := newSessionWith(t, d, domain.SessionKindManual, "a", "b", "c")
	p.onCall = func(string) { go s.ResetResults() }

	summary, err := d.ProcessAll(context.Background(), s, batch.RunOptions{})

	require.NoError(t, err)
	assert.True(t, summary.Canceled)
	assert.Equal(t, []string{"a"}, p.Calls())
	require.Eventually(t, func() bool {
		return s.Snapshot().Counts.Pending == 3
	}, 2*time.Second, 2*time.Millisecond)
}
