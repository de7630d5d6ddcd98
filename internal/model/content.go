package model

import "time"

// ContentType discriminates media assets. Only video participates in transcoding.
type ContentType string

const (
	ContentTypeVideo       ContentType = "video"
	ContentTypeYouTube     ContentType = "youtube"
	ContentTypeGoogleDrive ContentType = "googledrive"
	ContentTypeImage       ContentType = "image"
	ContentTypeAudio       ContentType = "audio"
)

// TranscodeStatus is the lifecycle state of the latest transcode attempt.
// The empty value means no transcode was ever requested.
type TranscodeStatus string

const (
	TranscodeStatusUnset      TranscodeStatus = ""
	TranscodeStatusProcessing TranscodeStatus = "processing"
	TranscodeStatusSucceeded  TranscodeStatus = "succeeded"
	TranscodeStatusFailed     TranscodeStatus = "failed"
	TranscodeStatusCancelled  TranscodeStatus = "cancelled"
)

// TranscodeTrigger is the legacy one-shot command written onto a record.
type TranscodeTrigger string

const (
	TranscodeTriggerNone   TranscodeTrigger = ""
	TranscodeTriggerManual TranscodeTrigger = "manual"
	TranscodeTriggerCancel TranscodeTrigger = "cancel"
)

// Content is the persisted record for one uploaded media asset.
type Content struct {
	ID                string           `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	Path              string           `json:"path" gorm:"column:path;type:varchar(1024);uniqueIndex"`
	Type              ContentType      `json:"type" gorm:"column:type;type:varchar(32)"`
	Title             string           `json:"title,omitempty" gorm:"column:title;type:varchar(255)"`
	TranscodeStatus   TranscodeStatus  `json:"transcodeStatus,omitempty" gorm:"column:transcode_status;type:varchar(20)"`
	TranscodeJobName  string           `json:"transcodeJobName,omitempty" gorm:"column:transcode_job_name;type:varchar(512)"`
	TranscodeTrigger  TranscodeTrigger `json:"transcodeTrigger,omitempty" gorm:"column:transcode_trigger;type:varchar(20)"`
	// SupersededJobName is the job the current attempt replaced. Its
	// notifications are stale even while the new job name is not stored yet.
	SupersededJobName string           `json:"supersededJobName,omitempty" gorm:"column:superseded_job_name;type:varchar(512)"`
	TranscodeAttempt  int              `json:"transcodeAttempt" gorm:"column:transcode_attempt;default:0"`
	CancelRequested   bool             `json:"cancelRequested" gorm:"column:cancel_requested;default:false"`
	HLSURL            string           `json:"hlsUrl,omitempty" gorm:"column:hls_url;type:varchar(1024)"`
	ErrorMessage      string           `json:"errorMessage,omitempty" gorm:"column:error_message;type:text"`
	CreatedAt         time.Time        `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" gorm:"column:updated_at"`
}

func (Content) TableName() string {
	return "contents"
}

// IsVideo reports whether the record takes part in transcoding.
func (c *Content) IsVideo() bool {
	return c.Type == ContentTypeVideo
}

// Column names accepted in a ContentUpdate.
const (
	FieldTranscodeStatus   = "transcode_status"
	FieldTranscodeJobName  = "transcode_job_name"
	FieldSupersededJobName = "superseded_job_name"
	FieldTranscodeTrigger  = "transcode_trigger"
	FieldTranscodeAttempt  = "transcode_attempt"
	FieldCancelRequested   = "cancel_requested"
	FieldHLSURL            = "hls_url"
	FieldErrorMessage      = "error_message"
	FieldTitle             = "title"
)

// ContentUpdate is a field-level partial update keyed by column name.
type ContentUpdate map[string]interface{}

// Set assigns a field and returns the update for chaining.
func (u ContentUpdate) Set(field string, value interface{}) ContentUpdate {
	u[field] = value
	return u
}

// Clear empties a string field. Columns are NOT NULL, so an empty value is
// what "absent" means on a record.
func (u ContentUpdate) Clear(field string) ContentUpdate {
	u[field] = ""
	return u
}

// Apply merges the update into c. Unknown fields are ignored.
func (c *Content) Apply(u ContentUpdate) {
	for field, value := range u {
		switch field {
		case FieldTranscodeStatus:
			c.TranscodeStatus = TranscodeStatus(stringValue(value))
		case FieldTranscodeJobName:
			c.TranscodeJobName = stringValue(value)
		case FieldSupersededJobName:
			c.SupersededJobName = stringValue(value)
		case FieldTranscodeTrigger:
			c.TranscodeTrigger = TranscodeTrigger(stringValue(value))
		case FieldHLSURL:
			c.HLSURL = stringValue(value)
		case FieldErrorMessage:
			c.ErrorMessage = stringValue(value)
		case FieldTitle:
			c.Title = stringValue(value)
		case FieldCancelRequested:
			b, _ := value.(bool)
			c.CancelRequested = b
		case FieldTranscodeAttempt:
			switch n := value.(type) {
			case int:
				c.TranscodeAttempt = n
			case int64:
				c.TranscodeAttempt = int(n)
			}
		}
	}
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case TranscodeStatus:
		return string(s)
	case TranscodeTrigger:
		return string(s)
	case ContentType:
		return string(s)
	}
	return ""
}
