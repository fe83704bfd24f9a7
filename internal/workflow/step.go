package workflow

// Step identifies a stage of the cart-to-fulfillment workflow.
type Step string

const (
	StepCart             Step = "cart"
	StepRequestDownload  Step = "request_download"
	StepRightsCheck      Step = "rights_check"
	StepRightsExtension  Step = "request_rights_extension"
	StepDownload         Step = "download"
	StepCloseDownload    Step = "close_download"
)

var allSteps = []Step{
	StepCart,
	StepRequestDownload,
	StepRightsCheck,
	StepRightsExtension,
	StepDownload,
	StepCloseDownload,
}

// Steps returns every workflow step in panel order.
func Steps() []Step {
	return append([]Step(nil), allSteps...)
}

// StepStatus tracks a step's progress within the current workflow cycle.
type StepStatus string

const (
	StatusInit    StepStatus = "init"
	StatusCurrent StepStatus = "current"
	StatusSuccess StepStatus = "success"
	StatusFailure StepStatus = "failure"
)

// Label returns the human-readable name used in CLI output and logs.
func (s Step) Label() string {
	switch s {
	case StepCart:
		return "Cart"
	case StepRequestDownload:
		return "Request download"
	case StepRightsCheck:
		return "Rights check"
	case StepRightsExtension:
		return "Request rights extension"
	case StepDownload:
		return "Download"
	case StepCloseDownload:
		return "Close download"
	default:
		return string(s)
	}
}

// State is the engine's observable state. Snapshot returns a deep copy so
// callers can never mutate engine internals through it.
type State struct {
	Active Step
	Status map[Step]StepStatus
	Closed bool
}

func newState() State {
	status := make(map[Step]StepStatus, len(allSteps))
	for _, step := range allSteps {
		status[step] = StatusInit
	}
	status[StepCart] = StatusCurrent
	return State{Active: StepCart, Status: status}
}

func (s State) clone() State {
	status := make(map[Step]StepStatus, len(s.Status))
	for step, st := range s.Status {
		status[step] = st
	}
	return State{Active: s.Active, Status: status, Closed: s.Closed}
}
