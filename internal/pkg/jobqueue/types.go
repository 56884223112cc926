package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	// JobTypeWebhookReplay re-runs event processing after a storage failure.
	JobTypeWebhookReplay JobType = "webhook_replay"
	// JobTypeArchiveEvent copies a newly logged event to object storage.
	JobTypeArchiveEvent JobType = "archive_event"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// WebhookReplayJobPayload carries a verified event body that could not be stored.
type WebhookReplayJobPayload struct {
	EventID string `json:"event_id"`
	Payload string `json:"payload"`
}

// ToMap converts the payload to a map for storage
func (p WebhookReplayJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"event_id": p.EventID,
		"payload":  p.Payload,
	}
}

// WebhookReplayJobPayloadFromMap creates a payload from a map
func WebhookReplayJobPayloadFromMap(data map[string]interface{}) (*WebhookReplayJobPayload, error) {
	var payload WebhookReplayJobPayload
	err := fromMap(data, &payload)
	return &payload, err
}

// ArchiveEventJobPayload carries an event log row to archive.
type ArchiveEventJobPayload struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	PayloadJSON string    `json:"payload_json"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ToMap converts the payload to a map for storage
func (p ArchiveEventJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"event_id":     p.EventID,
		"type":         p.Type,
		"payload_json": p.PayloadJSON,
		"received_at":  p.ReceivedAt.Format(time.RFC3339Nano),
	}
}

// ArchiveEventJobPayloadFromMap creates a payload from a map
func ArchiveEventJobPayloadFromMap(data map[string]interface{}) (*ArchiveEventJobPayload, error) {
	var payload ArchiveEventJobPayload
	err := fromMap(data, &payload)
	return &payload, err
}

func fromMap(data map[string]interface{}, v interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, v)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
