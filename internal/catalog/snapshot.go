package catalog

// Snapshot is an immutable, ordered view of cart contents. Mutating operations
// return a new Snapshot; the backing slice is never shared with callers.
type Snapshot struct {
	assets []Asset
}

// NewSnapshot copies the provided assets into a Snapshot.
func NewSnapshot(assets []Asset) Snapshot {
	cp := make([]Asset, len(assets))
	copy(cp, assets)
	return Snapshot{assets: cp}
}

// Assets returns a copy of the snapshot contents in cart order.
func (s Snapshot) Assets() []Asset {
	cp := make([]Asset, len(s.assets))
	copy(cp, s.assets)
	return cp
}

// IDs returns the asset identifiers in cart order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.assets))
	for _, a := range s.assets {
		ids = append(ids, a.ID)
	}
	return ids
}

// Len reports the number of assets in the snapshot.
func (s Snapshot) Len() int { return len(s.assets) }

// Empty reports whether the cart holds no assets.
func (s Snapshot) Empty() bool { return len(s.assets) == 0 }

// Find returns the asset with the given identifier, if present.
func (s Snapshot) Find(id string) (Asset, bool) {
	for _, a := range s.assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// AllCleared reports whether every asset in the snapshot is ready-to-use or
// already ruled available. An empty snapshot is not considered cleared.
func (s Snapshot) AllCleared() bool {
	if len(s.assets) == 0 {
		return false
	}
	for _, a := range s.assets {
		if !a.Cleared() {
			return false
		}
	}
	return true
}

// Without returns a new Snapshot with the listed identifiers removed. Assets
// not matched by id are untouched and keep their relative order.
func (s Snapshot) Without(ids []string) Snapshot {
	if len(ids) == 0 {
		return NewSnapshot(s.assets)
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := make([]Asset, 0, len(s.assets))
	for _, a := range s.assets {
		if _, gone := drop[a.ID]; gone {
			continue
		}
		kept = append(kept, a)
	}
	return Snapshot{assets: kept}
}
