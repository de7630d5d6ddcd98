package model

import "errors"

var (
	ErrContentNotFound    = errors.New("content not found")
	ErrDuplicatePath      = errors.New("content path already registered")
	ErrCommandNotFound    = errors.New("command not found")
	ErrNotVideo           = errors.New("content is not a video")
	ErrNoActiveJob        = errors.New("content has no transcode job to cancel")
	ErrStorageUnavailable = errors.New("object storage is not configured")
)
