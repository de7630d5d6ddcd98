package model

import "time"

// CreateContentRequest registers a content record before its object is uploaded.
type CreateContentRequest struct {
	Path  string      `json:"path" validate:"required,max=1024"`
	Type  ContentType `json:"type" validate:"required,oneof=video youtube googledrive image audio"`
	Title string      `json:"title" validate:"omitempty,max=255"`
}

// ContentResponse is the operator view of a content record.
type ContentResponse struct {
	Content
	PlaybackURL string `json:"playbackUrl,omitempty"`
}

// UploadContentResponse is returned after a video upload into the intake area.
type UploadContentResponse struct {
	Content   ContentResponse `json:"content"`
	ObjectURL string          `json:"objectUrl"`
	Transcode bool            `json:"transcode"`
}

// CommandResponse is returned when an operator command is queued.
type CommandResponse struct {
	CommandID string        `json:"commandId"`
	ContentID string        `json:"contentId"`
	Kind      CommandKind   `json:"kind"`
	Status    CommandStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// SignedURLResponse carries a temporary download link.
type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
