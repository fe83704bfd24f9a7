package workflow

import (
	"strings"
	"sync"
	"time"

	"clearcart/internal/rights"
	"clearcart/internal/services"
)

// ExtensionRequest carries the restricted-asset subset and the agency and
// contact metadata needed to ask the authority for a rights extension.
type ExtensionRequest struct {
	AssetIDs      []string
	Agency        string
	ContactName   string
	ContactEmail  string
	Materials     string
	TermsAccepted bool
}

// Validate enforces the required fields for submission. Drafts saved during
// back-navigation are exempt; only submission validates.
func (r ExtensionRequest) Validate() error {
	if len(r.AssetIDs) == 0 {
		return services.Wrap(services.ErrValidation, "workflow", "extension request", "no assets selected", nil)
	}
	if strings.TrimSpace(r.Agency) == "" {
		return services.Wrap(services.ErrValidation, "workflow", "extension request", "agency required", nil)
	}
	if strings.TrimSpace(r.ContactName) == "" {
		return services.Wrap(services.ErrValidation, "workflow", "extension request", "contact name required", nil)
	}
	if strings.TrimSpace(r.ContactEmail) == "" {
		return services.Wrap(services.ErrValidation, "workflow", "extension request", "contact email required", nil)
	}
	if !r.TermsAccepted {
		return services.Wrap(services.ErrValidation, "workflow", "extension request", "terms must be accepted", nil)
	}
	return nil
}

func (r ExtensionRequest) clone() ExtensionRequest {
	cp := r
	cp.AssetIDs = append([]string(nil), r.AssetIDs...)
	return cp
}

// CheckRecord summarizes a completed clearance cycle for the rights-check
// step's form data.
type CheckRecord struct {
	AuthorizedIDs []string
	RestrictedIDs []string
	CheckedAt     time.Time
}

func (c CheckRecord) clone() CheckRecord {
	cp := c
	cp.AuthorizedIDs = append([]string(nil), c.AuthorizedIDs...)
	cp.RestrictedIDs = append([]string(nil), c.RestrictedIDs...)
	return cp
}

// StepData is the append-only holder for per-step form input. Writes replace
// the whole per-step value and reads return copies, so back-navigation can
// restore prior input without sharing mutable state with callers.
type StepData struct {
	mu              sync.RWMutex
	requestDownload *rights.IntendedUse
	rightsCheck     *CheckRecord
	extension       *ExtensionRequest
}

// NewStepData constructs an empty step data store.
func NewStepData() *StepData {
	return &StepData{}
}

// SetIntendedUse stores the request-download step's form values.
func (d *StepData) SetIntendedUse(use rights.IntendedUse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := use.Clone()
	d.requestDownload = &cp
}

// IntendedUse returns the stored declaration, if any.
func (d *StepData) IntendedUse() (rights.IntendedUse, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.requestDownload == nil {
		return rights.IntendedUse{}, false
	}
	return d.requestDownload.Clone(), true
}

// SetCheckRecord stores the latest clearance-cycle summary.
func (d *StepData) SetCheckRecord(record CheckRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := record.clone()
	d.rightsCheck = &cp
}

// CheckRecord returns the stored clearance summary, if any.
func (d *StepData) CheckRecord() (CheckRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.rightsCheck == nil {
		return CheckRecord{}, false
	}
	return d.rightsCheck.clone(), true
}

// SetExtension stores the extension-request form values.
func (d *StepData) SetExtension(req ExtensionRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := req.clone()
	d.extension = &cp
}

// Extension returns the stored extension form, if any.
func (d *StepData) Extension() (ExtensionRequest, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.extension == nil {
		return ExtensionRequest{}, false
	}
	return d.extension.clone(), true
}
