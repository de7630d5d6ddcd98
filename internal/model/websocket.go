package model

// WebSocket message types
const (
	WSMessageTypeStatus = "status"
	WSMessageTypeError  = "error"
	WSMessageTypePing   = "ping"
	WSMessageTypePong   = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusMessage is pushed whenever a content record's transcode state changes
type WSStatusMessage struct {
	Type             string          `json:"type"`
	ContentID        string          `json:"contentId"`
	TranscodeStatus  TranscodeStatus `json:"transcodeStatus,omitempty"`
	TranscodeJobName string          `json:"transcodeJobName,omitempty"`
	HLSURL           string          `json:"hlsUrl,omitempty"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	Attempt          int             `json:"attempt"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type      string  `json:"type"`
	ContentID string  `json:"contentId"`
	Error     WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
