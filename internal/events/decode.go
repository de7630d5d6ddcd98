package events

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/learnhub/api/internal/model"
)

// s3EventRecord is one record of an S3 style bucket notification, the shape
// MinIO and R2 event notifications publish.
type s3EventRecord struct {
	EventName string `json:"eventName"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key          string            `json:"key"`
			Size         int64             `json:"size"`
			ContentType  string            `json:"contentType"`
			UserMetadata map[string]string `json:"userMetadata"`
		} `json:"object"`
	} `json:"s3"`
}

// unwrapEnvelope returns the decoded data of a push envelope, or payload
// unchanged when it is not one.
func unwrapEnvelope(payload []byte) ([]byte, error) {
	var envelope model.PushEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Message.Data == "" {
		return payload, nil
	}
	data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("decode envelope data: %w", err)
	}
	return data, nil
}

// DecodeStorageEvents accepts a flat object event, an S3 style notification
// with a Records list, or either wrapped in a push envelope. Records that do
// not describe a created object are skipped.
func DecodeStorageEvents(payload []byte) ([]model.StorageObjectEvent, error) {
	payload, err := unwrapEnvelope(payload)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Records []s3EventRecord `json:"Records"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("unmarshal storage event: %w", err)
	}
	if len(probe.Records) > 0 {
		out := make([]model.StorageObjectEvent, 0, len(probe.Records))
		for _, rec := range probe.Records {
			if !strings.Contains(rec.EventName, "ObjectCreated") {
				continue
			}
			key, err := url.QueryUnescape(rec.S3.Object.Key)
			if err != nil {
				key = rec.S3.Object.Key
			}
			out = append(out, model.StorageObjectEvent{
				Bucket:      rec.S3.Bucket.Name,
				Name:        key,
				ContentType: rec.S3.Object.ContentType,
				Size:        rec.S3.Object.Size,
				Metadata:    normalizeMetadata(rec.S3.Object.UserMetadata),
			})
		}
		return out, nil
	}

	var evt model.StorageObjectEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal storage event: %w", err)
	}
	if evt.Name == "" {
		return nil, errors.New("storage event has no object name")
	}
	return []model.StorageObjectEvent{evt}, nil
}

// normalizeMetadata lower-cases keys and strips the x-amz-meta- prefix S3
// style notifications put on user metadata.
func normalizeMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")] = v
	}
	return out
}

// DecodeRecordChange parses a record change event, optionally wrapped in a
// push envelope.
func DecodeRecordChange(payload []byte) (*model.RecordChangeEvent, error) {
	payload, err := unwrapEnvelope(payload)
	if err != nil {
		return nil, err
	}
	var evt model.RecordChangeEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal record change: %w", err)
	}
	switch evt.Type {
	case model.RecordChangeUpdate:
		if evt.After == nil {
			return nil, errors.New("update event has no after snapshot")
		}
	case model.RecordChangeDelete:
		if evt.Before == nil {
			return nil, errors.New("delete event has no snapshot")
		}
	default:
		return nil, fmt.Errorf("unknown record change type %q", evt.Type)
	}
	return &evt, nil
}
