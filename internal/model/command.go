package model

import "time"

// CommandKind is the operator action a command carries.
type CommandKind string

const (
	CommandKindManual CommandKind = "manual"
	CommandKindCancel CommandKind = "cancel"
)

// CommandStatus tracks whether a command has been acted on.
type CommandStatus string

const (
	CommandStatusPending  CommandStatus = "pending"
	CommandStatusConsumed CommandStatus = "consumed"
	CommandStatusFailed   CommandStatus = "failed"
)

// TranscodeCommand is a queued operator request against one content record.
type TranscodeCommand struct {
	ID          string        `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	ContentID   string        `json:"contentId" gorm:"column:content_id;type:varchar(36);index"`
	Kind        CommandKind   `json:"kind" gorm:"column:kind;type:varchar(20)"`
	Status      CommandStatus `json:"status" gorm:"column:status;type:varchar(20);index"`
	RequestedBy string        `json:"requestedBy,omitempty" gorm:"column:requested_by;type:varchar(255)"`
	Error       *string       `json:"error,omitempty" gorm:"column:error;type:text"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"column:created_at"`
	ConsumedAt  *time.Time    `json:"consumedAt,omitempty" gorm:"column:consumed_at"`
}

func (TranscodeCommand) TableName() string {
	return "transcode_commands"
}

// CleanupFailure is a transcoded-artifact prefix that could not be deleted
// when its content record was removed.
type CleanupFailure struct {
	ID        string    `json:"id" gorm:"column:id;type:varchar(36);primaryKey"`
	ContentID string    `json:"contentId" gorm:"column:content_id;type:varchar(36);index"`
	Prefix    string    `json:"prefix" gorm:"column:prefix;type:varchar(1024)"`
	Error     string    `json:"error" gorm:"column:error;type:text"`
	Attempts  int       `json:"attempts" gorm:"column:attempts;default:1"`
	Resolved  bool      `json:"resolved" gorm:"column:resolved;default:false;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (CleanupFailure) TableName() string {
	return "cleanup_failures"
}
