// Package review runs AI re-categorization passes over a session and keeps
// their results honest against the live list.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/models"
)

type State string

const (
	StateIdle               State = "idle"
	StateChecking           State = "checking"
	StateSuggestionsPending State = "suggestions_pending"
	StateError              State = "error"
)

const (
	DefaultTimeout        = 45 * time.Second
	DefaultAutoCheckEdits = 5
)

// Reviewer proposes categories for a snapshot of items.
type Reviewer interface {
	ReviewCategories(ctx context.Context, items []models.SnapshotItem) ([]models.ProposedCategory, error)
}

// Sessions is the part of the session store the reconciler needs.
type Sessions interface {
	Load(ctx context.Context, id string) (*models.Session, bool, error)
	ApplyCategoriesIf(ctx context.Context, id string, changes map[string]categories.Category, guard func(*models.Session) error) (int, *models.Session, error)
}

type Options struct {
	// Timeout bounds one review call. Expiry puts the session in StateError.
	Timeout time.Duration
	// AutoCheckEdits is how many edits since the last pass make a new pass
	// due. Zero disables automatic checks.
	AutoCheckEdits int
	Now            func() time.Time
}

// Status is a point-in-time view of one session's review state.
type Status struct {
	SessionID              string                  `json:"session_id"`
	State                  State                   `json:"state"`
	Batch                  *models.SuggestionBatch `json:"batch,omitempty"`
	Error                  string                  `json:"error,omitempty"`
	ItemsChangedSinceCheck bool                    `json:"items_changed_since_check"`
	Edits                  int                     `json:"edits"`
}

type sessionState struct {
	state      State
	generation uint64
	batch      *models.SuggestionBatch
	err        error
	edits      int
	changed    bool
}

// Reconciler holds the review state machine of every session it has seen.
type Reconciler struct {
	reviewer Reviewer
	sessions Sessions
	opts     Options

	mu     sync.Mutex
	states map[string]*sessionState

	inflight sync.WaitGroup
}

func New(reviewer Reviewer, sessions Sessions, opts Options) *Reconciler {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.AutoCheckEdits < 0 {
		opts.AutoCheckEdits = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		reviewer: reviewer,
		sessions: sessions,
		opts:     opts,
		states:   make(map[string]*sessionState),
	}
}

// stateLocked returns the state of a session, creating an idle one.
func (r *Reconciler) stateLocked(id string) *sessionState {
	st, ok := r.states[id]
	if !ok {
		st = &sessionState{state: StateIdle}
		r.states[id] = st
	}
	return st
}

func (r *Reconciler) statusLocked(id string, st *sessionState) Status {
	s := Status{
		SessionID:              id,
		State:                  st.state,
		ItemsChangedSinceCheck: st.changed,
		Edits:                  st.edits,
	}
	if st.batch != nil {
		b := *st.batch
		s.Batch = &b
	}
	if st.err != nil {
		s.Error = st.err.Error()
	}
	return s
}

func (r *Reconciler) Status(id string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked(id, r.stateLocked(id))
}

// Check runs one review pass over a fresh snapshot of the session. It can be
// called from any state; a newer pass supersedes an older one still in
// flight, whose result is then ignored.
//
// A result computed against a snapshot the live list has since diverged from
// is discarded and reported as common.ErrStaleBatch.
func (r *Reconciler) Check(ctx context.Context, id string) (Status, error) {
	session, ok, err := r.sessions.Load(ctx, id)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}

	snapshot := session.Snapshot()
	requestedAt := r.opts.Now()

	r.mu.Lock()
	st := r.stateLocked(id)
	st.generation++
	gen := st.generation
	st.state = StateChecking
	st.batch = nil
	st.err = nil
	editsAtSnapshot := st.edits
	r.mu.Unlock()

	slog.Debug("Review pass started", "session_id", id, "items", len(snapshot))

	rctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	proposals, err := r.reviewer.ReviewCategories(rctx, snapshot)
	cancel()

	var live *models.Session
	var exists bool
	if err == nil {
		live, exists, err = r.sessions.Load(ctx, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if st.generation != gen {
		slog.Debug("Review pass superseded", "session_id", id)
		return r.statusLocked(id, st), nil
	}

	if err != nil {
		st.state = StateError
		st.err = reviewError(err)
		slog.Warn("Review pass failed", "session_id", id, "err", st.err)
		return r.statusLocked(id, st), st.err
	}
	if !exists {
		delete(r.states, id)
		return Status{}, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}

	if Stale(snapshot, live.Items) {
		st.state = StateIdle
		slog.Info("Review result discarded as stale", "session_id", id)
		return r.statusLocked(id, st), common.ErrStaleBatch
	}

	suggestions := Suggestions(snapshot, proposals)
	st.edits = max(st.edits-editsAtSnapshot, 0)
	st.changed = st.edits > 0
	if len(suggestions) == 0 {
		st.state = StateIdle
		slog.Info("Review pass found nothing to change", "session_id", id)
		return r.statusLocked(id, st), nil
	}

	st.state = StateSuggestionsPending
	st.batch = &models.SuggestionBatch{
		Suggestions: suggestions,
		Snapshot:    snapshot,
		RequestedAt: requestedAt,
	}
	slog.Info("Review suggestions ready", "session_id", id, "suggestions", len(suggestions))
	return r.statusLocked(id, st), nil
}

// Trigger starts Check in the background. Wait blocks until triggered
// checks have finished.
func (r *Reconciler) Trigger(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		if _, err := r.Check(ctx, id); err != nil && !errors.Is(err, common.ErrStaleBatch) {
			slog.Warn("Automatic review failed", "session_id", id, "err", err)
		}
	}()
}

func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

// Accept applies the pending batch in one store update, matching items by id.
// Suggestions for items deleted since the snapshot are dropped. A batch that
// went stale is refused, discarded and reported as common.ErrStaleBatch.
func (r *Reconciler) Accept(ctx context.Context, id string) (int, *models.Session, error) {
	r.mu.Lock()
	st := r.stateLocked(id)
	if st.state != StateSuggestionsPending || st.batch == nil {
		r.mu.Unlock()
		return 0, nil, fmt.Errorf("session %s: %w", id, common.ErrNoPendingBatch)
	}
	batch := st.batch
	gen := st.generation
	r.mu.Unlock()

	changes := make(map[string]categories.Category, len(batch.Suggestions))
	for _, s := range batch.Suggestions {
		changes[s.ItemID] = s.Proposed
	}

	applied, session, err := r.sessions.ApplyCategoriesIf(ctx, id, changes, func(live *models.Session) error {
		if Stale(batch.Snapshot, live.Items) {
			return common.ErrStaleBatch
		}
		return nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case errors.Is(err, common.ErrStaleBatch):
		if st.generation == gen {
			st.state = StateIdle
			st.batch = nil
		}
		slog.Info("Refused stale suggestions", "session_id", id)
		return 0, nil, err
	case errors.Is(err, common.ErrNotFound):
		delete(r.states, id)
		return 0, nil, err
	case err != nil:
		return 0, nil, err
	}

	if st.generation == gen {
		st.state = StateIdle
		st.batch = nil
		st.edits = 0
		st.changed = false
	}
	slog.Info("Applied review suggestions", "session_id", id, "applied", applied, "offered", len(batch.Suggestions))
	return applied, session, nil
}

// Dismiss discards the pending batch without touching the session. Edits
// made after the batch's snapshot still count toward the next automatic check.
func (r *Reconciler) Dismiss(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateLocked(id)
	if st.state != StateSuggestionsPending {
		return fmt.Errorf("session %s: %w", id, common.ErrNoPendingBatch)
	}
	st.state = StateIdle
	st.batch = nil
	return nil
}

// NoteEdit records an add, rename, recategorize or delete on session. A
// pending batch the edit made stale is discarded and a failed pass is
// cleared. It reports whether an automatic check is now due.
func (r *Reconciler) NoteEdit(session *models.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateLocked(session.ID)
	st.edits++
	st.changed = true

	if st.state == StateError {
		st.state = StateIdle
		st.err = nil
	}

	if st.state == StateSuggestionsPending && st.batch != nil && Stale(st.batch.Snapshot, session.Items) {
		slog.Debug("Edit invalidated pending suggestions", "session_id", session.ID)
		st.state = StateIdle
		st.batch = nil
	}

	if r.opts.AutoCheckEdits == 0 {
		return false
	}
	return st.state == StateIdle && st.changed && st.edits >= r.opts.AutoCheckEdits
}

// Forget drops all state of a session, e.g. after it was deleted.
func (r *Reconciler) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[id]; ok {
		// outstanding passes see a new generation and drop their result
		st.generation++
		delete(r.states, id)
	}
}

func reviewError(err error) error {
	if errors.Is(err, common.ErrReview) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: review timed out: %w", common.ErrReview, err)
	}
	return fmt.Errorf("%w: %w", common.ErrReview, err)
}

// Stale reports whether live has diverged from snapshot: an item was added,
// or a surviving item's category changed. Removed items do not make a batch
// stale.
func Stale(snapshot []models.SnapshotItem, live []models.Item) bool {
	seen := make(map[string]categories.Category, len(snapshot))
	for _, s := range snapshot {
		seen[s.ID] = s.Category
	}
	for _, it := range live {
		c, ok := seen[it.ID]
		if !ok || !c.Equal(it.Category) {
			return true
		}
	}
	return false
}

// Suggestions turns review proposals into suggestions, in snapshot order.
// Proposals for unknown ids and proposals that keep the current category are
// skipped; the first proposal for an id wins.
func Suggestions(snapshot []models.SnapshotItem, proposals []models.ProposedCategory) []models.Suggestion {
	proposed := make(map[string]categories.Category, len(proposals))
	for _, p := range proposals {
		if _, dup := proposed[p.ItemID]; !dup {
			proposed[p.ItemID] = p.Category
		}
	}

	var out []models.Suggestion
	for _, s := range snapshot {
		c, ok := proposed[s.ID]
		if !ok || c.Equal(s.Category) {
			continue
		}
		out = append(out, models.Suggestion{
			ItemID:   s.ID,
			ItemName: s.Name,
			Current:  s.Category,
			Proposed: c,
		})
	}
	return out
}
