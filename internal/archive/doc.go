// Package archive drives server-side archive packaging for a batch of asset
// rendition selections. Client speaks the archive service's create/status
// protocol; Fulfiller turns the asynchronous packaging job into a completed
// download by polling at a fixed interval under a bounded attempt count and
// fanning the finished file URLs out to a Downloader.
//
// The fan-out is deliberately best-effort: once a job completes, every file
// URL is triggered without waiting for or verifying the individual downloads.
// Callers must not assume per-file confirmation.
package archive
