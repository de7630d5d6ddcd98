package model

// StorageObjectEvent is emitted when an object upload is finalized.
type StorageObjectEvent struct {
	Bucket      string            `json:"bucket"`
	Name        string            `json:"name"`
	ContentType string            `json:"contentType,omitempty"`
	Size        int64             `json:"size,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Record change event types.
const (
	RecordChangeUpdate = "update"
	RecordChangeDelete = "delete"
)

// RecordChangeEvent carries snapshots of a content record around a write.
// Updates carry Before and After; deletes carry the final snapshot in Before.
type RecordChangeEvent struct {
	Type   string   `json:"type"`
	Before *Content `json:"before,omitempty"`
	After  *Content `json:"after,omitempty"`
}

// JobNotification is the job service's lifecycle message.
type JobNotification struct {
	Job JobDescription `json:"job"`
}

type JobDescription struct {
	Name          string    `json:"name,omitempty"`
	State         string    `json:"state"`
	InputURI      string    `json:"inputUri"`
	OutputURI     string    `json:"outputUri,omitempty"`
	Error         *JobError `json:"error,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
}

type JobError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorDetail returns the most specific failure text the notification carries.
func (j JobDescription) ErrorDetail() string {
	if j.Error != nil && j.Error.Message != "" {
		return j.Error.Message
	}
	return j.FailureReason
}

// PushEnvelope is the wrapper used by push-style pub/sub delivery.
type PushEnvelope struct {
	Message struct {
		Data       string            `json:"data"`
		MessageID  string            `json:"messageId,omitempty"`
		Attributes map[string]string `json:"attributes,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription,omitempty"`
}
