// Package notify publishes a release event to NATS after a successful publish.
package notify

import "time"

// ReleaseEvent describes a published package version.
type ReleaseEvent struct {
	RunID     string    `json:"run_id"`
	Package   string    `json:"package"`
	Version   string    `json:"version"`
	DistTag   string    `json:"dist_tag,omitempty"`
	GitTag    string    `json:"git_tag,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
