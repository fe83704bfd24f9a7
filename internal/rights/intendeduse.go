package rights

import (
	"time"

	"clearcart/internal/services"
)

// IntendedUse declares how and when the selected assets will be used. It is
// collected at the request-download step and frozen for the duration of a
// clearance cycle; back-navigation may produce a new declaration.
type IntendedUse struct {
	AirDate       time.Time
	PullDate      time.Time
	Markets       []string
	MediaChannels []string
}

// Validate enforces the intended-use invariants: air date set, pull date at
// least one day after air date, and at least one market and media channel.
func (u IntendedUse) Validate() error {
	if u.AirDate.IsZero() {
		return services.Wrap(services.ErrValidation, "rights", "intended use", "air date not set", nil)
	}
	if u.PullDate.IsZero() {
		return services.Wrap(services.ErrValidation, "rights", "intended use", "pull date not set", nil)
	}
	if u.PullDate.Before(u.AirDate.AddDate(0, 0, 1)) {
		return services.Wrap(services.ErrValidation, "rights", "intended use", "pull date must be at least one day after air date", nil)
	}
	if len(u.Markets) == 0 {
		return services.Wrap(services.ErrValidation, "rights", "intended use", "at least one market required", nil)
	}
	if len(u.MediaChannels) == 0 {
		return services.Wrap(services.ErrValidation, "rights", "intended use", "at least one media channel required", nil)
	}
	return nil
}

// Clone returns a deep copy so stored declarations cannot be mutated through
// shared slices.
func (u IntendedUse) Clone() IntendedUse {
	cp := u
	cp.Markets = append([]string(nil), u.Markets...)
	cp.MediaChannels = append([]string(nil), u.MediaChannels...)
	return cp
}
