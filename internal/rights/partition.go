package rights

import "clearcart/internal/catalog"

// Partition is the result of classifying a cart against clearance verdicts.
// Every cart asset appears in exactly one of Authorized or Restricted.
type Partition struct {
	Authorized      []catalog.Asset
	Restricted      []catalog.Asset
	NewlyAuthorized []string
}

// PartitionAssets classifies every asset in the snapshot.
//
// An asset is authorized when its ready-to-use flag is set, its stored verdict
// is available, its identifier is in previouslyAuthorized, the latest check
// ruled it available, or the latest check did not mention it at all (the
// presumed-cleared fallback). Only an explicit notAvailable or availableExcept
// verdict restricts an asset.
//
// NewlyAuthorized lists identifiers the latest check cleared, explicitly or
// implicitly, that were not already authorized by prior state.
func PartitionAssets(snap catalog.Snapshot, verdicts []ClearanceVerdict, previouslyAuthorized map[string]struct{}) Partition {
	byID := make(map[string]ClearanceVerdict, len(verdicts))
	for _, v := range verdicts {
		byID[v.AssetID] = v
	}

	var result Partition
	for _, asset := range snap.Assets() {
		_, wasAuthorized := previouslyAuthorized[asset.ID]
		priorAuthorized := asset.Cleared() || wasAuthorized

		verdict, mentioned := byID[asset.ID]
		restricted := mentioned && !verdict.Available && (verdict.NotAvailable || verdict.AvailableExcept)

		if !priorAuthorized && restricted {
			result.Restricted = append(result.Restricted, asset)
			continue
		}
		result.Authorized = append(result.Authorized, asset)
		if !priorAuthorized {
			result.NewlyAuthorized = append(result.NewlyAuthorized, asset.ID)
		}
	}
	return result
}

// RestrictedCandidates returns the assets that still need clearance before a
// check has run: neither flagged ready, ruled available, nor accumulated as
// authorized in an earlier cycle.
func RestrictedCandidates(snap catalog.Snapshot, previouslyAuthorized map[string]struct{}) []catalog.Asset {
	var out []catalog.Asset
	for _, asset := range snap.Assets() {
		if asset.Cleared() {
			continue
		}
		if _, ok := previouslyAuthorized[asset.ID]; ok {
			continue
		}
		out = append(out, asset)
	}
	return out
}
