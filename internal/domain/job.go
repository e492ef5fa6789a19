package domain

import (
	"regexp"
	"time"
)

// JobPosting is the persisted form of a listing that passed filtering.
// Location is optional; "" means the vendor did not provide one.
type JobPosting struct {
	JobID     string    `json:"jobId"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Location  string    `json:"location,omitempty"`
	FirstSeen time.Time `json:"firstSeen"`
}

type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

// RunResult is what one ingestion cycle reports back to its caller.
type RunResult struct {
	RunID          string        `json:"runId"`
	Source         string        `json:"source"`
	Status         RunStatus     `json:"status"`
	JobsFound      int           `json:"jobsFound"`
	NewJobs        int           `json:"newJobs"`
	Message        string        `json:"message,omitempty"`
	PagesScanned   int           `json:"pagesScanned,omitempty"`
	TotalAvailable int           `json:"totalAvailable,omitempty"`
	StartedAt      time.Time     `json:"startedAt"`
	Duration       time.Duration `json:"durationNs"`
}

func (r RunResult) OK() bool { return r.Status == StatusSuccess }

var sourceNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// ValidSource reports whether name is usable as a source key
// (it ends up in file names and SQL parameters).
func ValidSource(name string) bool {
	return sourceNameRe.MatchString(name)
}
