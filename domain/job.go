package domain

import (
	"sort"
	"time"
)

type JobStatus string

const (
	JobStatusUploaded     JobStatus = "uploaded"
	JobStatusTranscribing JobStatus = "transcribing"
	JobStatusSummarizing  JobStatus = "summarizing"
	JobStatusCompleted    JobStatus = "completed"
)

// Job is one lecture video moving through the processing pipeline.
// The client only observes Status; transitions happen out of process.
type Job struct {
	ID        string
	Title     string
	Status    JobStatus
	VideoURL  string
	Summary   string
	CreatedAt time.Time
}

// StatusLabel maps a job status to the badge text shown next to it.
// Unknown statuses render as in-flight rather than failing.
func StatusLabel(status JobStatus) string {
	switch status {
	case JobStatusCompleted:
		return "Ready"
	case JobStatusUploaded:
		return "New"
	default:
		return "Processing..."
	}
}

// SortJobs orders a snapshot newest-first, with ID as the tie-breaker so
// equal timestamps always render in the same order.
func SortJobs(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}
