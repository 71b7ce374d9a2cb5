package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Job status strings reported by the server.
const (
	StatusQueued          = "queued"
	StatusRunning         = "running"
	StatusDone            = "done"
	StatusError           = "error"
	StatusCancelled       = "cancelled"
	StatusCancelRequested = "cancel_requested"
)

// Source types accepted by the server.
const (
	SourceYouTube = "youtube"
	SourceUpload  = "upload"
)

// Credentials is returned by register, login and key rotation.
type Credentials struct {
	APIKey   string `json:"api_key"`
	Username string `json:"username"`
}

// ServerConfig mirrors GET /v1/jobs/config.
type ServerConfig struct {
	MaxUploadMB int `json:"max_upload_mb"`
}

// Submission is the response to a job submission.
type Submission struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// SourceMeta describes what a job was created from. Only the fields relevant
// to the source type are populated.
type SourceMeta struct {
	URL       string `json:"url,omitempty"`
	VideoID   string `json:"video_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Filename  string `json:"filename,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// JobError is the structured failure stored on a job.
type JobError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable"`
}

// UnmarshalJSON accepts either the structured object or a bare string.
func (e *JobError) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var msg string
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return err
		}
		*e = JobError{Message: msg}
		return nil
	}
	type plain JobError
	var raw struct {
		plain
		UserMessage string `json:"user_message"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*e = JobError(raw.plain)
	if e.Message == "" {
		e.Message = raw.UserMessage
	}
	return nil
}

// JobStatus mirrors GET /v1/jobs/{id} and the items of GET /v1/jobs.
type JobStatus struct {
	JobID      string     `json:"job_id"`
	Status     string     `json:"status"`
	Progress   *float64   `json:"progress"`
	SourceType string     `json:"source_type"`
	SourceMeta SourceMeta `json:"source_meta"`
	Error      *JobError  `json:"error"`
	CreatedAt  string     `json:"created_at"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (s JobStatus) ParsedCreatedAt() time.Time {
	return ParseTime(s.CreatedAt)
}

// JobList mirrors GET /v1/jobs.
type JobList struct {
	Items []JobStatus `json:"items"`
}

// OutlineSection is one titled block of the summary outline.
type OutlineSection struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// Timestamp marks a notable moment; T is "HH:MM:SS" or "MM:SS".
type Timestamp struct {
	T     string `json:"t"`
	Label string `json:"label"`
}

// Summary is the structured summary section of a result.
type Summary struct {
	TLDR        string           `json:"tl_dr,omitempty"`
	KeyPoints   []string         `json:"key_points,omitempty"`
	Outline     []OutlineSection `json:"outline,omitempty"`
	ActionItems []string         `json:"action_items,omitempty"`
	Timestamps  []Timestamp      `json:"timestamps,omitempty"`
}

// Transcript holds the transcript text. The server sends an object with a
// text field; older jobs may carry a bare string.
type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// UnmarshalJSON accepts either {"text": ...} or a bare string.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*t = Transcript{Text: text}
		return nil
	}
	type plain Transcript
	var raw plain
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*t = Transcript(raw)
	return nil
}

// ResultPayload mirrors GET /v1/jobs/{id}/result. Every section is optional.
type ResultPayload struct {
	Source     SourceMeta  `json:"source"`
	Summary    *Summary    `json:"summary"`
	Transcript *Transcript `json:"transcript"`
}

// Attachment is a downloaded export.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseTime parses the ISO timestamps emitted by the server. Invalid or
// missing values return the zero time.
func ParseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
