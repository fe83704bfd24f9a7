package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clearcart/internal/archive"
	"clearcart/internal/catalog"
	"clearcart/internal/logging"
	"clearcart/internal/rights"
	"clearcart/internal/services"
)

// Cart is the external collaborator owning the asset selection. The engine
// reads snapshots and requests mutations; it never edits cart rows itself.
type Cart interface {
	Snapshot(ctx context.Context) (catalog.Snapshot, error)
	RemoveAssets(ctx context.Context, ids []string) error
	SetVerdict(ctx context.Context, id string, verdict catalog.Verdict) error
	AddAuthorized(ctx context.Context, ids []string) error
}

// Checker runs clearance cycles. rights.Checker is the production
// implementation.
type Checker interface {
	Check(ctx context.Context, use rights.IntendedUse, snap catalog.Snapshot) (rights.Partition, error)
}

// Fulfiller packages and downloads archive batches. archive.Fulfiller is the
// production implementation.
type Fulfiller interface {
	Fulfill(ctx context.Context, selections []catalog.RenditionSelection) (archive.Job, error)
}

// Engine is the workflow state machine. All commands are serialized; each
// state change replaces the state value as a whole so observers never see a
// partial update.
type Engine struct {
	cart      Cart
	checker   Checker
	fulfiller Fulfiller
	logger    *slog.Logger
	runID     string

	mu    sync.Mutex
	state State
	data  *StepData
}

// EngineOption configures optional Engine behavior.
type EngineOption func(*Engine)

// WithEngineLogger attaches a logger to the engine.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logging.NewComponentLogger(logger, "workflow")
		}
	}
}

// NewEngine constructs a workflow engine over its collaborators.
func NewEngine(cart Cart, checker Checker, fulfiller Fulfiller, opts ...EngineOption) *Engine {
	e := &Engine{
		cart:      cart,
		checker:   checker,
		fulfiller: fulfiller,
		logger:    logging.NewNop(),
		runID:     uuid.NewString(),
		state:     newState(),
		data:      NewStepData(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.String(logging.FieldCycleID, e.runID))
	return e
}

// Snapshot returns a copy of the observable engine state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Data exposes the per-step form store so UIs can restore prior input.
func (e *Engine) Data() *StepData { return e.data }

// Closed reports whether the workflow panel has closed.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Closed
}

// OpenDownloadRequest moves from the cart to the request-download step.
func (e *Engine) OpenDownloadRequest(ctx context.Context) error {
	return e.dispatch(ctx, cmdOpenDownloadRequest, nil)
}

// OpenDirectDownload skips clearance when every cart asset is already
// ready-to-use or ruled available.
func (e *Engine) OpenDirectDownload(ctx context.Context) error {
	return e.dispatch(ctx, cmdOpenDirectDownload, nil)
}

// SaveIntendedUseDraft stores in-progress request-download form values, e.g.
// before back-navigation. Drafts are not validated.
func (e *Engine) SaveIntendedUseDraft(use rights.IntendedUse) {
	e.data.SetIntendedUse(use)
}

// SubmitIntendedUse validates and freezes the declaration, advancing to the
// rights-check step.
func (e *Engine) SubmitIntendedUse(ctx context.Context, use rights.IntendedUse) error {
	return e.dispatch(ctx, cmdSubmitIntendedUse, use)
}

// ProceedToDownload advances from a fully authorized rights check to the
// download step.
func (e *Engine) ProceedToDownload(ctx context.Context) error {
	return e.dispatch(ctx, cmdProceedToDownload, nil)
}

// SaveExtensionDraft stores in-progress extension-request form values.
func (e *Engine) SaveExtensionDraft(req ExtensionRequest) {
	e.data.SetExtension(req)
}

// OpenExtensionRequest moves to the extension step once a completed check
// left restricted assets behind.
func (e *Engine) OpenExtensionRequest(ctx context.Context) error {
	return e.dispatch(ctx, cmdOpenExtension, nil)
}

// SubmitExtensionRequest validates the form, removes the matched restricted
// assets from the cart, and returns to the rights-check step, or closes the
// workflow when the cart becomes empty.
func (e *Engine) SubmitExtensionRequest(ctx context.Context, req ExtensionRequest) error {
	return e.dispatch(ctx, cmdSubmitExtension, req)
}

// Back navigates one step backwards. Call the draft-saving methods first;
// stored form values are restored when the step is re-entered.
func (e *Engine) Back(ctx context.Context) error {
	return e.dispatch(ctx, cmdBack, nil)
}

// RunRightsCheck executes a clearance cycle at the rights-check step. The
// network call happens outside the engine lock; other commands stay
// responsive while a check is in flight, and the checker suppresses
// duplicates on its own.
func (e *Engine) RunRightsCheck(ctx context.Context) (rights.Partition, error) {
	e.mu.Lock()
	if e.state.Closed {
		e.mu.Unlock()
		return rights.Partition{}, errClosed()
	}
	if e.state.Active != StepRightsCheck {
		active := e.state.Active
		e.mu.Unlock()
		return rights.Partition{}, errWrongStep("run rights check", active)
	}
	use, ok := e.data.IntendedUse()
	e.mu.Unlock()
	if !ok {
		return rights.Partition{}, services.Wrap(services.ErrValidation, "workflow", "run rights check", "intended use not declared", nil)
	}

	snap, err := e.cart.Snapshot(ctx)
	if err != nil {
		e.failStep(StepRightsCheck, err)
		return rights.Partition{}, fmt.Errorf("read cart: %w", err)
	}

	result, err := e.checker.Check(ctx, use, snap)
	if errors.Is(err, rights.ErrCheckInFlight) {
		return rights.Partition{}, err
	}
	if err != nil {
		e.failStep(StepRightsCheck, err)
		return rights.Partition{}, services.Wrap(services.ErrExternalService, "workflow", "run rights check", "", err)
	}

	if err := e.persistCheckOutcome(ctx, result); err != nil {
		e.failStep(StepRightsCheck, err)
		return rights.Partition{}, err
	}

	record := CheckRecord{CheckedAt: time.Now().UTC()}
	for _, a := range result.Authorized {
		record.AuthorizedIDs = append(record.AuthorizedIDs, a.ID)
	}
	for _, a := range result.Restricted {
		record.RestrictedIDs = append(record.RestrictedIDs, a.ID)
	}
	e.data.SetCheckRecord(record)

	e.logger.Info("rights check applied",
		logging.String(logging.FieldEventType, "rights_check_applied"),
		logging.Int("authorized", len(result.Authorized)),
		logging.Int("restricted", len(result.Restricted)),
	)
	return result, nil
}

func (e *Engine) persistCheckOutcome(ctx context.Context, result rights.Partition) error {
	for _, id := range result.NewlyAuthorized {
		if err := e.cart.SetVerdict(ctx, id, catalog.VerdictAvailable); err != nil {
			return fmt.Errorf("record verdict for %q: %w", id, err)
		}
	}
	if err := e.cart.AddAuthorized(ctx, result.NewlyAuthorized); err != nil {
		return fmt.Errorf("accumulate authorizations: %w", err)
	}
	return nil
}

// StartDownload runs archive fulfillment for the selections at the download
// step. On success the fulfilled assets leave the cart and the workflow
// closes; a failed or timed-out job marks the step failed and leaves the cart
// intact for another attempt.
func (e *Engine) StartDownload(ctx context.Context, selections []catalog.RenditionSelection) error {
	e.mu.Lock()
	if e.state.Closed {
		e.mu.Unlock()
		return errClosed()
	}
	if e.state.Active != StepDownload {
		active := e.state.Active
		e.mu.Unlock()
		return errWrongStep("start download", active)
	}
	e.mu.Unlock()

	if len(selections) == 0 {
		return services.Wrap(services.ErrValidation, "workflow", "start download", "no selections", nil)
	}

	job, err := e.fulfiller.Fulfill(ctx, selections)
	if err != nil {
		e.failStep(StepDownload, err)
		return err
	}

	ids := make([]string, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.AssetID)
	}
	if err := e.cart.RemoveAssets(ctx, ids); err != nil {
		e.failStep(StepDownload, err)
		return fmt.Errorf("remove fulfilled assets: %w", err)
	}

	e.logger.Info("download fulfilled",
		logging.String(logging.FieldEventType, "download_fulfilled"),
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("assets", len(ids)),
	)
	return e.dispatch(ctx, cmdCompleteDownload, nil)
}

// ReconcileCart closes the workflow when the external cart has emptied, e.g.
// after the application removed assets outside a workflow command.
func (e *Engine) ReconcileCart(ctx context.Context) error {
	snap, err := e.cart.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}
	if !snap.Empty() {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Closed {
		e.closeLocked("cart empty")
	}
	return nil
}

func (e *Engine) failStep(step Step, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.state.clone()
	next.Status[step] = StatusFailure
	e.state = next
	e.logger.Warn("step failed",
		logging.Error(cause),
		logging.String(logging.FieldStep, string(step)),
		logging.String(logging.FieldEventType, "step_failed"),
	)
}

func (e *Engine) moveToLocked(next Step) {
	ns := e.state.clone()
	ns.Active = next
	ns.Status[next] = StatusCurrent
	e.state = ns
	e.logger.Debug("step entered",
		logging.String(logging.FieldStep, string(next)),
		logging.String(logging.FieldEventType, "step_entered"),
	)
}

func (e *Engine) setStatusLocked(step Step, status StepStatus) {
	ns := e.state.clone()
	ns.Status[step] = status
	e.state = ns
}

func (e *Engine) closeLocked(reason string) {
	ns := e.state.clone()
	ns.Closed = true
	e.state = ns
	e.logger.Info("workflow closed",
		logging.String("reason", reason),
		logging.String(logging.FieldEventType, "workflow_closed"),
	)
}

func errClosed() error {
	return services.Wrap(services.ErrValidation, "workflow", "command", "workflow closed", nil)
}

func errWrongStep(operation string, active Step) error {
	return services.Wrap(services.ErrValidation, "workflow", operation,
		fmt.Sprintf("not allowed from step %s", active), nil)
}
