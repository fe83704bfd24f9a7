package workflow

import (
	"context"

	"clearcart/internal/rights"
	"clearcart/internal/services"
)

// command names a user-driven workflow action. Commands are resolved against
// the transition table; a command issued from the wrong step is a validation
// error, never a panic or a silent no-op.
type command string

const (
	cmdOpenDownloadRequest command = "open_download_request"
	cmdOpenDirectDownload  command = "open_direct_download"
	cmdSubmitIntendedUse   command = "submit_intended_use"
	cmdProceedToDownload   command = "proceed_to_download"
	cmdOpenExtension       command = "open_extension_request"
	cmdSubmitExtension     command = "submit_extension_request"
	cmdCompleteDownload    command = "complete_download"
	cmdBack                command = "back"
)

type transitionKey struct {
	from Step
	cmd  command
}

// transitionRule is one legal edge of the step machine. The guard runs before
// any mutation; apply performs the transition, including step status updates
// and any cart side effects, under the engine lock.
type transitionRule struct {
	guard func(ctx context.Context, e *Engine, payload any) error
	apply func(ctx context.Context, e *Engine, payload any) error
}

var transitions = map[transitionKey]transitionRule{
	{StepCart, cmdOpenDownloadRequest}: {
		guard: guardCartNotEmpty,
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepCart, StatusSuccess)
			e.moveToLocked(StepRequestDownload)
			return nil
		},
	},
	{StepCart, cmdOpenDirectDownload}: {
		guard: guardCartAllCleared,
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepCart, StatusSuccess)
			e.moveToLocked(StepDownload)
			return nil
		},
	},
	{StepRequestDownload, cmdSubmitIntendedUse}: {
		guard: func(ctx context.Context, e *Engine, payload any) error {
			use, ok := payload.(rights.IntendedUse)
			if !ok {
				return services.Wrap(services.ErrValidation, "workflow", "submit intended use", "missing declaration", nil)
			}
			return use.Validate()
		},
		apply: func(ctx context.Context, e *Engine, payload any) error {
			e.data.SetIntendedUse(payload.(rights.IntendedUse))
			e.setStatusLocked(StepRequestDownload, StatusSuccess)
			e.moveToLocked(StepRightsCheck)
			return nil
		},
	},
	{StepRequestDownload, cmdBack}: {
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepRequestDownload, StatusInit)
			e.moveToLocked(StepCart)
			return nil
		},
	},
	{StepRightsCheck, cmdProceedToDownload}: {
		guard: func(ctx context.Context, e *Engine, _ any) error {
			record, ok := e.data.CheckRecord()
			if !ok {
				return services.Wrap(services.ErrValidation, "workflow", "proceed to download", "rights check has not completed", nil)
			}
			if len(record.RestrictedIDs) > 0 {
				return services.Wrap(services.ErrValidation, "workflow", "proceed to download", "restricted assets remain in the cart", nil)
			}
			return nil
		},
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepRightsCheck, StatusSuccess)
			e.moveToLocked(StepDownload)
			return nil
		},
	},
	{StepRightsCheck, cmdOpenExtension}: {
		guard: func(ctx context.Context, e *Engine, _ any) error {
			record, ok := e.data.CheckRecord()
			if !ok {
				return services.Wrap(services.ErrValidation, "workflow", "open extension request", "rights check has not completed", nil)
			}
			if len(record.RestrictedIDs) == 0 {
				return services.Wrap(services.ErrValidation, "workflow", "open extension request", "no restricted assets", nil)
			}
			return nil
		},
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepRightsCheck, StatusSuccess)
			e.moveToLocked(StepRightsExtension)
			return nil
		},
	},
	{StepRightsCheck, cmdBack}: {
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepRightsCheck, StatusInit)
			e.moveToLocked(StepRequestDownload)
			return nil
		},
	},
	{StepRightsExtension, cmdSubmitExtension}: {
		guard: func(ctx context.Context, e *Engine, payload any) error {
			req, ok := payload.(ExtensionRequest)
			if !ok {
				return services.Wrap(services.ErrValidation, "workflow", "submit extension request", "missing form", nil)
			}
			return req.Validate()
		},
		apply: applySubmitExtension,
	},
	{StepRightsExtension, cmdBack}: {
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepRightsExtension, StatusInit)
			e.moveToLocked(StepRightsCheck)
			return nil
		},
	},
	{StepDownload, cmdCompleteDownload}: {
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepDownload, StatusSuccess)
			e.moveToLocked(StepCloseDownload)
			e.setStatusLocked(StepCloseDownload, StatusSuccess)
			e.closeLocked("download complete")
			return nil
		},
	},
	{StepDownload, cmdBack}: {
		apply: func(ctx context.Context, e *Engine, _ any) error {
			e.setStatusLocked(StepDownload, StatusInit)
			// A direct download entered from the cart; the request path
			// entered from a successful rights check.
			if e.state.Status[StepRightsCheck] == StatusSuccess {
				e.moveToLocked(StepRightsCheck)
			} else {
				e.moveToLocked(StepCart)
			}
			return nil
		},
	},
}

func (e *Engine) dispatch(ctx context.Context, cmd command, payload any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Closed {
		return errClosed()
	}
	rule, ok := transitions[transitionKey{e.state.Active, cmd}]
	if !ok {
		return errWrongStep(string(cmd), e.state.Active)
	}
	if rule.guard != nil {
		if err := rule.guard(ctx, e, payload); err != nil {
			return err
		}
	}
	return rule.apply(ctx, e, payload)
}

func guardCartNotEmpty(ctx context.Context, e *Engine, _ any) error {
	snap, err := e.cart.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.Empty() {
		return services.Wrap(services.ErrValidation, "workflow", "open download request", "cart is empty", nil)
	}
	return nil
}

func guardCartAllCleared(ctx context.Context, e *Engine, _ any) error {
	snap, err := e.cart.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.Empty() {
		return services.Wrap(services.ErrValidation, "workflow", "open direct download", "cart is empty", nil)
	}
	if !snap.AllCleared() {
		return services.Wrap(services.ErrValidation, "workflow", "open direct download", "cart contains unauthorized assets", nil)
	}
	return nil
}

// applySubmitExtension removes exactly the restricted assets the form names.
// Ids outside the latest check's restricted set are rejected up front so the
// form cannot silently drop authorized assets from the cart.
func applySubmitExtension(ctx context.Context, e *Engine, payload any) error {
	req := payload.(ExtensionRequest)
	record, ok := e.data.CheckRecord()
	if !ok {
		return services.Wrap(services.ErrValidation, "workflow", "submit extension request", "rights check has not completed", nil)
	}
	restricted := make(map[string]struct{}, len(record.RestrictedIDs))
	for _, id := range record.RestrictedIDs {
		restricted[id] = struct{}{}
	}
	for _, id := range req.AssetIDs {
		if _, ok := restricted[id]; !ok {
			return services.Wrap(services.ErrValidation, "workflow", "submit extension request", "asset "+id+" is not restricted", nil)
		}
	}

	e.data.SetExtension(req)
	if err := e.cart.RemoveAssets(ctx, req.AssetIDs); err != nil {
		e.setStatusLocked(StepRightsExtension, StatusFailure)
		return services.Wrap(services.ErrExternalService, "workflow", "submit extension request", "remove restricted assets", err)
	}

	// Trim the removed ids so a repeat submission or the open-extension
	// guard sees the remaining restricted set.
	requested := make(map[string]struct{}, len(req.AssetIDs))
	for _, id := range req.AssetIDs {
		requested[id] = struct{}{}
	}
	remaining := record.RestrictedIDs[:0]
	for _, id := range record.RestrictedIDs {
		if _, ok := requested[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	record.RestrictedIDs = remaining
	e.data.SetCheckRecord(record)

	snap, err := e.cart.Snapshot(ctx)
	if err != nil {
		e.setStatusLocked(StepRightsExtension, StatusFailure)
		return err
	}
	e.setStatusLocked(StepRightsExtension, StatusSuccess)
	if snap.Empty() {
		e.closeLocked("cart empty after extension request")
		return nil
	}
	e.moveToLocked(StepRightsCheck)
	return nil
}
