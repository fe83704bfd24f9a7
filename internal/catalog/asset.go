package catalog

import "strings"

// Verdict records the rights authority's stored opinion about an asset.
type Verdict string

const (
	VerdictUnknown         Verdict = ""
	VerdictAvailable       Verdict = "available"
	VerdictNotAvailable    Verdict = "not_available"
	VerdictAvailableExcept Verdict = "available_except"
)

var verdictSet = map[Verdict]struct{}{
	VerdictUnknown:         {},
	VerdictAvailable:       {},
	VerdictNotAvailable:    {},
	VerdictAvailableExcept: {},
}

// ParseVerdict normalizes a stored verdict string. Unrecognized values map to
// VerdictUnknown rather than failing; a stale database must not wedge the cart.
func ParseVerdict(raw string) Verdict {
	v := Verdict(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := verdictSet[v]; ok {
		return v
	}
	return VerdictUnknown
}

// Asset is a single cart entry.
type Asset struct {
	ID          string
	DisplayName string
	ReadyToUse  bool
	Verdict     Verdict
}

// Cleared reports whether the asset needs no further clearance: it is either
// flagged ready-to-use or the authority has already ruled it available.
func (a Asset) Cleared() bool {
	return a.ReadyToUse || a.Verdict == VerdictAvailable
}

// RenditionSelection pairs an asset with the rendition names to include in an
// archive fulfillment request.
type RenditionSelection struct {
	AssetID    string
	Renditions []string
}
