package archive

import "strings"

// JobStatus represents the lifecycle of a server-side packaging job.
type JobStatus string

const (
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// ParseJobStatus normalizes a status string from the wire. Unknown values map
// to StatusProcessing so an unrecognized intermediate state keeps the poller
// waiting instead of failing the job.
func ParseJobStatus(raw string) JobStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(StatusCompleted):
		return StatusCompleted
	case string(StatusFailed):
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// Terminal reports whether the status ends the polling loop.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the observable state of a packaging job.
type Job struct {
	ID     string
	Status JobStatus
	// Files holds downloadable URLs; populated only once Status is COMPLETED.
	Files []string
}
