package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clearcart/internal/archive"
	"clearcart/internal/catalog"
	"clearcart/internal/rights"
	"clearcart/internal/services"
	"clearcart/internal/workflow"
)

type memCart struct {
	mu         sync.Mutex
	assets     []catalog.Asset
	authorized map[string]struct{}
	snapErr    error
}

func newMemCart(assets ...catalog.Asset) *memCart {
	return &memCart{assets: assets, authorized: make(map[string]struct{})}
}

func (c *memCart) Snapshot(context.Context) (catalog.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapErr != nil {
		return catalog.Snapshot{}, c.snapErr
	}
	return catalog.NewSnapshot(c.assets), nil
}

func (c *memCart) RemoveAssets(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets = catalog.NewSnapshot(c.assets).Without(ids).Assets()
	return nil
}

func (c *memCart) SetVerdict(_ context.Context, id string, verdict catalog.Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.assets {
		if c.assets[i].ID == id {
			c.assets[i].Verdict = verdict
		}
	}
	return nil
}

func (c *memCart) AddAuthorized(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.authorized[id] = struct{}{}
	}
	return nil
}

func (c *memCart) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.assets)
}

type stubChecker struct {
	result rights.Partition
	err    error
	calls  int
}

func (s *stubChecker) Check(context.Context, rights.IntendedUse, catalog.Snapshot) (rights.Partition, error) {
	s.calls++
	if s.err != nil {
		return rights.Partition{}, s.err
	}
	return s.result, nil
}

type stubFulfiller struct {
	job        archive.Job
	err        error
	selections []catalog.RenditionSelection
}

func (s *stubFulfiller) Fulfill(_ context.Context, selections []catalog.RenditionSelection) (archive.Job, error) {
	s.selections = selections
	if s.err != nil {
		return archive.Job{}, s.err
	}
	return s.job, nil
}

func validUse() rights.IntendedUse {
	air := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	return rights.IntendedUse{
		AirDate:       air,
		PullDate:      air.AddDate(0, 0, 7),
		Markets:       []string{"DE"},
		MediaChannels: []string{"tv"},
	}
}

func asset(id string, cleared bool) catalog.Asset {
	return catalog.Asset{ID: id, DisplayName: id, ReadyToUse: cleared}
}

func TestSubmitIntendedUseRejectsShortUsageWindow(t *testing.T) {
	cart := newMemCart(asset("urn:mediaasset:a", false))
	engine := workflow.NewEngine(cart, &stubChecker{}, &stubFulfiller{})
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}

	use := validUse()
	use.PullDate = use.AirDate.Add(12 * time.Hour)
	err := engine.SubmitIntendedUse(ctx, use)
	if !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if state := engine.Snapshot(); state.Active != workflow.StepRequestDownload {
		t.Fatalf("active step = %s, want %s", state.Active, workflow.StepRequestDownload)
	}
}

func TestBackRestoresDraftDeclaration(t *testing.T) {
	cart := newMemCart(asset("urn:mediaasset:a", false))
	engine := workflow.NewEngine(cart, &stubChecker{}, &stubFulfiller{})
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}

	draft := rights.IntendedUse{Markets: []string{"DE", "AT"}}
	engine.SaveIntendedUseDraft(draft)
	if err := engine.Back(ctx); err != nil {
		t.Fatalf("Back: %v", err)
	}

	state := engine.Snapshot()
	if state.Active != workflow.StepCart {
		t.Fatalf("active step = %s, want %s", state.Active, workflow.StepCart)
	}
	if state.Status[workflow.StepRequestDownload] != workflow.StatusInit {
		t.Fatalf("request-download status = %s, want %s", state.Status[workflow.StepRequestDownload], workflow.StatusInit)
	}

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	restored, ok := engine.Data().IntendedUse()
	if !ok {
		t.Fatal("expected stored draft after back-navigation")
	}
	if len(restored.Markets) != 2 || restored.Markets[0] != "DE" {
		t.Fatalf("restored draft markets = %v", restored.Markets)
	}
}

func TestOpenDirectDownloadRequiresClearedCart(t *testing.T) {
	cart := newMemCart(asset("urn:mediaasset:a", true), asset("urn:mediaasset:b", false))
	engine := workflow.NewEngine(cart, &stubChecker{}, &stubFulfiller{})

	err := engine.OpenDirectDownload(context.Background())
	if !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDirectDownloadClosesWorkflow(t *testing.T) {
	cart := newMemCart(asset("urn:mediaasset:a", true))
	fulfiller := &stubFulfiller{job: archive.Job{ID: "job-1", Status: archive.StatusCompleted}}
	engine := workflow.NewEngine(cart, &stubChecker{}, fulfiller)
	ctx := context.Background()

	if err := engine.OpenDirectDownload(ctx); err != nil {
		t.Fatalf("OpenDirectDownload: %v", err)
	}
	selections := []catalog.RenditionSelection{{AssetID: "urn:mediaasset:a", Renditions: []string{"master"}}}
	if err := engine.StartDownload(ctx, selections); err != nil {
		t.Fatalf("StartDownload: %v", err)
	}

	if !engine.Closed() {
		t.Fatal("workflow should close after a completed download")
	}
	if cart.len() != 0 {
		t.Fatalf("cart still holds %d assets", cart.len())
	}
	state := engine.Snapshot()
	if state.Status[workflow.StepDownload] != workflow.StatusSuccess {
		t.Fatalf("download status = %s", state.Status[workflow.StepDownload])
	}
	if state.Status[workflow.StepCloseDownload] != workflow.StatusSuccess {
		t.Fatalf("close-download status = %s", state.Status[workflow.StepCloseDownload])
	}
	if len(fulfiller.selections) != 1 {
		t.Fatalf("fulfiller received %d selections", len(fulfiller.selections))
	}
}

func TestDownloadFailureMarksStepFailedAndKeepsCart(t *testing.T) {
	cart := newMemCart(asset("urn:mediaasset:a", true))
	fulfiller := &stubFulfiller{err: errors.New("archive unavailable")}
	engine := workflow.NewEngine(cart, &stubChecker{}, fulfiller)
	ctx := context.Background()

	if err := engine.OpenDirectDownload(ctx); err != nil {
		t.Fatalf("OpenDirectDownload: %v", err)
	}
	selections := []catalog.RenditionSelection{{AssetID: "urn:mediaasset:a"}}
	if err := engine.StartDownload(ctx, selections); err == nil {
		t.Fatal("expected fulfillment error")
	}

	if engine.Closed() {
		t.Fatal("workflow must stay open after a failed download")
	}
	state := engine.Snapshot()
	if state.Status[workflow.StepDownload] != workflow.StatusFailure {
		t.Fatalf("download status = %s, want %s", state.Status[workflow.StepDownload], workflow.StatusFailure)
	}
	if cart.len() != 1 {
		t.Fatalf("cart lost assets on failure, %d remain", cart.len())
	}

	// The step stays usable for another attempt.
	fulfiller.err = nil
	fulfiller.job = archive.Job{ID: "job-2", Status: archive.StatusCompleted}
	if err := engine.StartDownload(ctx, selections); err != nil {
		t.Fatalf("retry StartDownload: %v", err)
	}
	if !engine.Closed() {
		t.Fatal("workflow should close after the retry succeeds")
	}
}

func TestRunRightsCheckRequiresDeclarationAndStep(t *testing.T) {
	cart := newMemCart(asset("urn:mediaasset:a", false))
	engine := workflow.NewEngine(cart, &stubChecker{}, &stubFulfiller{})
	ctx := context.Background()

	if _, err := engine.RunRightsCheck(ctx); !services.IsValidation(err) {
		t.Fatalf("expected validation error from cart step, got %v", err)
	}

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}
	checker := &stubChecker{err: errors.New("authority unreachable")}
	engine2 := workflow.NewEngine(cart, checker, &stubFulfiller{})
	if err := engine2.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine2.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}
	if _, err := engine2.RunRightsCheck(ctx); err == nil {
		t.Fatal("expected transport error")
	}
	if state := engine2.Snapshot(); state.Status[workflow.StepRightsCheck] != workflow.StatusFailure {
		t.Fatalf("rights-check status = %s, want %s", state.Status[workflow.StepRightsCheck], workflow.StatusFailure)
	}
}

func TestSubmitExtensionRemovesOnlyMatchedAssets(t *testing.T) {
	restricted := asset("urn:mediaasset:blocked", false)
	kept := asset("urn:mediaasset:kept", false)
	cleared := asset("urn:mediaasset:cleared", true)
	cart := newMemCart(restricted, kept, cleared)

	checker := &stubChecker{result: rights.Partition{
		Authorized:      []catalog.Asset{cleared},
		Restricted:      []catalog.Asset{restricted, kept},
		NewlyAuthorized: nil,
	}}
	engine := workflow.NewEngine(cart, checker, &stubFulfiller{})
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}
	if _, err := engine.RunRightsCheck(ctx); err != nil {
		t.Fatalf("RunRightsCheck: %v", err)
	}
	if err := engine.OpenExtensionRequest(ctx); err != nil {
		t.Fatalf("OpenExtensionRequest: %v", err)
	}

	form := workflow.ExtensionRequest{
		AssetIDs:      []string{"urn:mediaasset:blocked"},
		Agency:        "Example Agency",
		ContactName:   "A. Producer",
		ContactEmail:  "producer@example.com",
		TermsAccepted: true,
	}
	if err := engine.SubmitExtensionRequest(ctx, form); err != nil {
		t.Fatalf("SubmitExtensionRequest: %v", err)
	}

	if cart.len() != 2 {
		t.Fatalf("cart holds %d assets, want 2", cart.len())
	}
	snap, _ := cart.Snapshot(ctx)
	if _, ok := snap.Find("urn:mediaasset:blocked"); ok {
		t.Fatal("extension-matched asset should leave the cart")
	}
	if _, ok := snap.Find("urn:mediaasset:kept"); !ok {
		t.Fatal("unmatched restricted asset must stay in the cart")
	}
	if state := engine.Snapshot(); state.Active != workflow.StepRightsCheck {
		t.Fatalf("active step = %s, want %s", state.Active, workflow.StepRightsCheck)
	}
}

func TestSubmitExtensionRejectsUnrestrictedAsset(t *testing.T) {
	restricted := asset("urn:mediaasset:blocked", false)
	cleared := asset("urn:mediaasset:cleared", true)
	cart := newMemCart(restricted, cleared)
	checker := &stubChecker{result: rights.Partition{
		Authorized: []catalog.Asset{cleared},
		Restricted: []catalog.Asset{restricted},
	}}
	engine := workflow.NewEngine(cart, checker, &stubFulfiller{})
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}
	if _, err := engine.RunRightsCheck(ctx); err != nil {
		t.Fatalf("RunRightsCheck: %v", err)
	}
	if err := engine.OpenExtensionRequest(ctx); err != nil {
		t.Fatalf("OpenExtensionRequest: %v", err)
	}

	form := workflow.ExtensionRequest{
		AssetIDs:      []string{"urn:mediaasset:cleared"},
		Agency:        "Example Agency",
		ContactName:   "A. Producer",
		ContactEmail:  "producer@example.com",
		TermsAccepted: true,
	}
	err := engine.SubmitExtensionRequest(ctx, form)
	if !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if cart.len() != 2 {
		t.Fatalf("cart holds %d assets, want 2 untouched", cart.len())
	}
}

func TestExtensionEmptyingCartClosesWorkflow(t *testing.T) {
	restricted := asset("urn:mediaasset:blocked", false)
	cart := newMemCart(restricted)
	checker := &stubChecker{result: rights.Partition{Restricted: []catalog.Asset{restricted}}}
	engine := workflow.NewEngine(cart, checker, &stubFulfiller{})
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}
	if _, err := engine.RunRightsCheck(ctx); err != nil {
		t.Fatalf("RunRightsCheck: %v", err)
	}
	if err := engine.OpenExtensionRequest(ctx); err != nil {
		t.Fatalf("OpenExtensionRequest: %v", err)
	}

	form := workflow.ExtensionRequest{
		AssetIDs:      []string{"urn:mediaasset:blocked"},
		Agency:        "Example Agency",
		ContactName:   "A. Producer",
		ContactEmail:  "producer@example.com",
		TermsAccepted: true,
	}
	if err := engine.SubmitExtensionRequest(ctx, form); err != nil {
		t.Fatalf("SubmitExtensionRequest: %v", err)
	}
	if !engine.Closed() {
		t.Fatal("workflow should close once the cart is empty")
	}
	if err := engine.OpenDownloadRequest(ctx); !services.IsValidation(err) {
		t.Fatalf("expected commands rejected after close, got %v", err)
	}
}

func TestRequestFlowProceedsToDownloadWhenAllAuthorized(t *testing.T) {
	pending := asset("urn:mediaasset:pending", false)
	cart := newMemCart(pending)
	checker := &stubChecker{result: rights.Partition{
		Authorized:      []catalog.Asset{pending},
		NewlyAuthorized: []string{pending.ID},
	}}
	fulfiller := &stubFulfiller{job: archive.Job{ID: "job-9", Status: archive.StatusCompleted}}
	engine := workflow.NewEngine(cart, checker, fulfiller)
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}

	// Proceeding before a check completes is rejected.
	if err := engine.ProceedToDownload(ctx); !services.IsValidation(err) {
		t.Fatalf("expected validation error before check, got %v", err)
	}

	result, err := engine.RunRightsCheck(ctx)
	if err != nil {
		t.Fatalf("RunRightsCheck: %v", err)
	}
	if len(result.Restricted) != 0 {
		t.Fatalf("unexpected restricted assets: %v", result.Restricted)
	}
	if _, ok := cart.authorized[pending.ID]; !ok {
		t.Fatal("newly authorized asset was not persisted")
	}
	snap, _ := cart.Snapshot(ctx)
	if got, _ := snap.Find(pending.ID); got.Verdict != catalog.VerdictAvailable {
		t.Fatalf("verdict = %q, want %q", got.Verdict, catalog.VerdictAvailable)
	}

	if err := engine.ProceedToDownload(ctx); err != nil {
		t.Fatalf("ProceedToDownload: %v", err)
	}
	selections := []catalog.RenditionSelection{{AssetID: pending.ID, Renditions: []string{"proxy"}}}
	if err := engine.StartDownload(ctx, selections); err != nil {
		t.Fatalf("StartDownload: %v", err)
	}
	if !engine.Closed() {
		t.Fatal("workflow should close after fulfillment")
	}
}

func TestReconcileCartClosesOnEmptyCart(t *testing.T) {
	cart := newMemCart()
	engine := workflow.NewEngine(cart, &stubChecker{}, &stubFulfiller{})

	if err := engine.ReconcileCart(context.Background()); err != nil {
		t.Fatalf("ReconcileCart: %v", err)
	}
	if !engine.Closed() {
		t.Fatal("workflow should close when the cart is empty")
	}
}

func TestCheckInFlightDoesNotMarkFailure(t *testing.T) {
	pending := asset("urn:mediaasset:pending", false)
	cart := newMemCart(pending)
	checker := &stubChecker{err: rights.ErrCheckInFlight}
	engine := workflow.NewEngine(cart, checker, &stubFulfiller{})
	ctx := context.Background()

	if err := engine.OpenDownloadRequest(ctx); err != nil {
		t.Fatalf("OpenDownloadRequest: %v", err)
	}
	if err := engine.SubmitIntendedUse(ctx, validUse()); err != nil {
		t.Fatalf("SubmitIntendedUse: %v", err)
	}
	if _, err := engine.RunRightsCheck(ctx); !errors.Is(err, rights.ErrCheckInFlight) {
		t.Fatalf("expected ErrCheckInFlight, got %v", err)
	}
	if state := engine.Snapshot(); state.Status[workflow.StepRightsCheck] == workflow.StatusFailure {
		t.Fatal("in-flight suppression must not mark the step failed")
	}
}
