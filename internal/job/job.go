// Package job models the lifecycle of one tracked summary job.
package job

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/five82/summit/internal/api"
)

// Status is the client-side lifecycle state of a job.
type Status string

const (
	StatusNone    Status = ""
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusNone: {
		StatusQueued: true,
	},
	StatusQueued: {
		StatusQueued:  true,
		StatusRunning: true,
		StatusDone:    true,
		StatusError:   true,
	},
	StatusRunning: {
		StatusRunning: true,
		StatusDone:    true,
		StatusError:   true,
	},
	StatusDone:  {},
	StatusError: {},
}

// ErrInvalidTransition is returned when an update would move a job along an
// edge the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid job status transition")

// ErrNotRetryable is returned by Retry when the job is not in the error state.
var ErrNotRetryable = errors.New("job is not in a retryable state")

// CanTransition reports whether a job may move from one status to another
// as the result of a poll.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Terminal reports whether no further polling happens in this status.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Kind distinguishes where a job's media came from.
type Kind string

const (
	KindExternalVideo Kind = "external-video"
	KindUpload        Kind = "upload"
)

// KindFromSourceType maps the server's source_type field.
func KindFromSourceType(sourceType string) Kind {
	if strings.EqualFold(strings.TrimSpace(sourceType), api.SourceUpload) {
		return KindUpload
	}
	return KindExternalVideo
}

// Source describes what a job was created from.
type Source struct {
	Kind     Kind
	Title    string
	Filename string
	URL      string
	VideoID  string
}

// SourceFromMeta builds a Source from the server's source metadata.
func SourceFromMeta(sourceType string, meta api.SourceMeta) Source {
	kind := KindFromSourceType(sourceType)
	if sourceType == "" && meta.Filename != "" && meta.URL == "" {
		kind = KindUpload
	}
	return Source{
		Kind:     kind,
		Title:    strings.TrimSpace(meta.Title),
		Filename: strings.TrimSpace(meta.Filename),
		URL:      strings.TrimSpace(meta.URL),
		VideoID:  strings.TrimSpace(meta.VideoID),
	}
}

// Label returns the display name: title, then filename, then URL.
func (s Source) Label() string {
	for _, v := range []string{s.Title, s.Filename, s.URL} {
		if v != "" {
			return v
		}
	}
	return "Unknown"
}

// Failure is a job that the server reported as failed. It implements error.
type Failure struct {
	Message   string
	Code      string
	Retryable bool
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	msg := f.Message
	if msg == "" {
		msg = "processing failed"
	}
	if f.Code != "" {
		return fmt.Sprintf("job failed (%s): %s", f.Code, msg)
	}
	return "job failed: " + msg
}

// Job is the client's view of one remote job.
type Job struct {
	ID       string
	Status   Status
	Progress *int
	Source   Source
	Failure  *Failure
}

// New seeds a job from a submission response.
func New(id string) (Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, fmt.Errorf("job id required")
	}
	j := Job{ID: id}
	if err := j.transition(StatusQueued); err != nil {
		return Job{}, err
	}
	return j, nil
}

// FromStatus builds a job directly from a status response. It is used when
// re-attaching to an existing job, where no prior client state exists.
func FromStatus(s api.JobStatus) Job {
	j := Job{
		ID:       s.JobID,
		Progress: progressValue(s.Progress),
		Source:   SourceFromMeta(s.SourceType, s.SourceMeta),
	}
	status, failure := mapStatus(s)
	j.Status = status
	if status == StatusError {
		j.Failure = failure
	}
	return j
}

// Terminal reports whether the job reached done or error.
func (j Job) Terminal() bool {
	return j.Status.Terminal()
}

// CanRetry reports whether the server marked the failure as retryable.
func (j Job) CanRetry() bool {
	return j.Status == StatusError && j.Failure != nil && j.Failure.Retryable
}

// ProgressLabel renders progress, keeping "unknown" distinct from "0%".
func (j Job) ProgressLabel() string {
	if j.Progress == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d%%", *j.Progress)
}

// Apply records a poll response. Progress and source metadata are taken
// verbatim. It returns ErrInvalidTransition, leaving the job untouched, when
// the reported status cannot follow the current one.
func (j *Job) Apply(s api.JobStatus) error {
	to, failure := mapStatus(s)
	if to == StatusNone {
		return fmt.Errorf("unknown job status %q", s.Status)
	}
	if err := j.transition(to); err != nil {
		return err
	}
	j.Progress = progressValue(s.Progress)
	meta := SourceFromMeta(s.SourceType, s.SourceMeta)
	if s.SourceType == "" && j.Source.Kind != "" {
		meta.Kind = j.Source.Kind
	}
	j.Source = mergeSource(j.Source, meta)
	if to == StatusError {
		j.Failure = failure
	}
	return nil
}

// Retry moves a failed job back to queued after the server accepted a
// retry call. Progress and failure are cleared.
func (j *Job) Retry() error {
	if j.Status != StatusError {
		return fmt.Errorf("%w: %s is %s", ErrNotRetryable, j.ID, j.Status)
	}
	j.Status = StatusQueued
	j.Progress = nil
	j.Failure = nil
	return nil
}

func (j *Job) transition(to Status) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("%w: %q -> %q (job_id=%s)", ErrInvalidTransition, j.Status, to, j.ID)
	}
	j.Status = to
	return nil
}

func mapStatus(s api.JobStatus) (Status, *Failure) {
	switch strings.ToLower(strings.TrimSpace(s.Status)) {
	case api.StatusQueued:
		return StatusQueued, nil
	case api.StatusRunning, api.StatusCancelRequested:
		return StatusRunning, nil
	case api.StatusDone:
		return StatusDone, nil
	case api.StatusError:
		f := &Failure{Message: "processing failed"}
		if s.Error != nil {
			f = &Failure{Message: s.Error.Message, Code: s.Error.Code, Retryable: s.Error.Retryable}
		}
		return StatusError, f
	case api.StatusCancelled:
		return StatusError, &Failure{Message: "cancelled", Code: "cancelled", Retryable: true}
	default:
		return StatusNone, nil
	}
}

func progressValue(p *float64) *int {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	v := int(math.Floor(*p))
	return &v
}

func mergeSource(old, next Source) Source {
	if next.Title == "" {
		next.Title = old.Title
	}
	if next.Filename == "" {
		next.Filename = old.Filename
	}
	if next.URL == "" {
		next.URL = old.URL
	}
	if next.VideoID == "" {
		next.VideoID = old.VideoID
	}
	return next
}
