package batch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"addrparser/internal/domain"
	"addrparser/internal/port"
)

// DriverConfig holds settings for the sequential parse driver.
type DriverConfig struct {
	// PaceDelay is the pause after each completed call in a process-all run,
	// before the next item is dispatched.
	PaceDelay time.Duration
	// CallTimeout bounds one parse call. Zero means no timeout beyond the
	// session context.
	CallTimeout time.Duration
}

// RunOptions selects which items a process-all run visits.
type RunOptions struct {
	// RetryFailed also re-submits items that previously failed.
	RetryFailed bool
}

type job struct {
	itemID   uuid.UUID
	eligible func(domain.ItemStatus) bool
	reply    chan outcome
}

type outcome struct {
	item      domain.BatchItem
	attempted bool
	failed    bool
}

// Driver submits session items to the address parser strictly one at a time.
// Every session gets a single worker goroutine; it is the only caller of the
// parser for that session, so process-all runs and single-item requests never
// overlap.
type Driver struct {
	parser port.AddressParser
	cfg    DriverConfig
	now    func() time.Time
}

// NewDriver creates a Driver.
func NewDriver(parser port.AddressParser, cfg DriverConfig) *Driver {
	return &Driver{parser: parser, cfg: cfg, now: time.Now}
}

// NewSession creates an empty session and starts its worker. Callers must
// Close the session to stop the worker.
func (d *Driver) NewSession(kind domain.SessionKind) *Session {
	s := newSession(kind, d.now)
	go d.work(s)
	return s
}

func (d *Driver) work(s *Session) {
	defer close(s.done)
	for {
		select {
		case <-s.closing:
			return
		case j := <-s.jobs:
			j.reply <- d.execute(s, j)
		}
	}
}

// execute performs at most one parse call for j.
// Items without an address are left as they are.
func (d *Driver) execute(s *Session, j job) outcome {
	current, ok := s.Item(j.itemID)
	if !ok || strings.TrimSpace(current.Request.Address()) == "" {
		return outcome{item: current}
	}

	t, req, ctx, ok := s.begin(j.itemID, j.eligible)
	if !ok {
		item, _ := s.Item(j.itemID)
		return outcome{item: item}
	}
	address := strings.TrimSpace(req.Address())

	callCtx := ctx
	if d.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
		defer cancel()
	}

	res, err := d.parser.Parse(callCtx, address)
	if err == nil && res == nil {
		err = domain.ErrMalformedResult
	}
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", s.ID().String()).
			Str("item_id", j.itemID.String()).
			Msg("batch.Driver: parse failed")
		item, applied := s.fail(t, msgParseFailed)
		if !applied {
			log.Debug().Str("item_id", j.itemID.String()).Msg("batch.Driver: discarded failure for cleared session")
			item, _ = s.Item(j.itemID)
		}
		return outcome{item: item, attempted: true, failed: true}
	}

	item, applied := s.complete(t, res)
	if !applied {
		log.Debug().Str("item_id", j.itemID.String()).Msg("batch.Driver: discarded result for cleared session")
		item, _ = s.Item(j.itemID)
	}
	return outcome{item: item, attempted: true}
}

// ProcessAll parses every pending item (and failed items when opts.RetryFailed)
// in session order, one call at a time, pausing PaceDelay after each call.
// A failed item does not stop the run. The run ends early when ctx is done or
// the session is reset or closed; the summary is then marked Canceled.
// It returns domain.ErrBatchRunning if another run is active on s and
// domain.ErrSessionClosed if s was closed.
func (d *Driver) ProcessAll(ctx context.Context, s *Session, opts RunOptions) (domain.RunSummary, error) {
	if err := s.tryStartRun(); err != nil {
		return domain.RunSummary{SessionID: s.ID(), Kind: s.Kind(), StartedAt: d.now()}, err
	}
	return d.runAll(ctx, s, opts), nil
}

// StartAll claims the session for a process-all run and performs it in a new
// goroutine, calling done with the summary when the run ends. The claim is
// made before StartAll returns, so a second call fails with
// domain.ErrBatchRunning until the run is over.
func (d *Driver) StartAll(ctx context.Context, s *Session, opts RunOptions, done func(domain.RunSummary)) error {
	if err := s.tryStartRun(); err != nil {
		return err
	}
	go func() {
		summary := d.runAll(ctx, s, opts)
		if done != nil {
			done(summary)
		}
	}()
	return nil
}

// runAll performs a claimed run and releases the claim when it ends.
func (d *Driver) runAll(ctx context.Context, s *Session, opts RunOptions) domain.RunSummary {
	summary := domain.RunSummary{SessionID: s.ID(), Kind: s.Kind(), StartedAt: d.now()}
	defer s.endRun()

	sctx := s.runContext()
	eligible := func(st domain.ItemStatus) bool { return batchEligible(st, opts.RetryFailed) }

	ids := s.eligibleIDs(opts.RetryFailed)
	log.Info().Str("session_id", s.ID().String()).Int("items", len(ids)).
		Msg("batch.Driver: process-all started")

	paceNext := false
	for _, id := range ids {
		if paceNext && d.cfg.PaceDelay > 0 {
			if !d.wait(ctx, sctx, s) {
				summary.Canceled = true
				break
			}
		}
		if ctx.Err() != nil || sctx.Err() != nil {
			summary.Canceled = true
			break
		}

		out, err := d.dispatch(ctx, sctx, s, job{itemID: id, eligible: eligible})
		if err != nil {
			summary.Canceled = true
			break
		}
		paceNext = out.attempted
		if !out.attempted {
			continue
		}
		summary.Attempted++
		if out.failed {
			summary.Failed++
		} else {
			summary.Done++
		}
	}

	summary.FinishedAt = d.now()
	log.Info().Str("session_id", s.ID().String()).
		Int("attempted", summary.Attempted).Int("done", summary.Done).Int("failed", summary.Failed).
		Bool("canceled", summary.Canceled).
		Msg("batch.Driver: process-all finished")
	return summary
}

// ProcessOne parses a single item on demand, independent of batch order. An
// item that is already Processing is left alone and returned as-is; a Done
// item is parsed again and its result overwritten. Parse failures are
// reported through the returned item's status, not as an error.
func (d *Driver) ProcessOne(ctx context.Context, s *Session, id uuid.UUID) (domain.BatchItem, error) {
	item, ok := s.Item(id)
	if !ok {
		return domain.BatchItem{}, domain.ErrItemNotFound
	}
	if item.Status == domain.ItemStatusProcessing {
		return item, nil
	}

	out, err := d.dispatch(ctx, nil, s, job{itemID: id, eligible: anyStatus})
	if err != nil {
		return domain.BatchItem{}, err
	}
	if out.item.ID == uuid.Nil {
		// Cleared while queued or in flight.
		return domain.BatchItem{}, domain.ErrItemNotFound
	}
	return out.item, nil
}

func anyStatus(domain.ItemStatus) bool { return true }

// dispatch hands j to the session worker and waits for its outcome. sctx may
// be nil; when set, the job is not sent once sctx is done.
func (d *Driver) dispatch(ctx, sctx context.Context, s *Session, j job) (outcome, error) {
	j.reply = make(chan outcome, 1)

	var sdone <-chan struct{}
	if sctx != nil {
		sdone = sctx.Done()
	}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return outcome{}, ctx.Err()
	case <-sdone:
		return outcome{}, sctx.Err()
	case <-s.closing:
		return outcome{}, domain.ErrSessionClosed
	}

	select {
	case out := <-j.reply:
		return out, nil
	case <-ctx.Done():
		return outcome{}, ctx.Err()
	case <-s.closing:
		return outcome{}, domain.ErrSessionClosed
	}
}

// wait sleeps for PaceDelay. It returns false if the run should stop.
func (d *Driver) wait(ctx, sctx context.Context, s *Session) bool {
	timer := time.NewTimer(d.cfg.PaceDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-sctx.Done():
		return false
	case <-s.closing:
		return false
	}
}
