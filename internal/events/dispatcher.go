package events

import (
	"context"
	"log/slog"

	"github.com/learnhub/api/internal/model"
)

type ObjectFinalizedHandler interface {
	HandleObjectFinalized(ctx context.Context, evt *model.StorageObjectEvent)
}

type RecordUpdateHandler interface {
	HandleUpdate(ctx context.Context, before, after *model.Content)
}

type RecordDeleteHandler interface {
	HandleDelete(ctx context.Context, content *model.Content)
}

type NotificationHandler interface {
	Handle(ctx context.Context, payload []byte)
}

// Topics names the inbound topics routed by the dispatcher.
type Topics struct {
	Storage       string
	Records       string
	Notifications string
}

// Dispatcher routes raw event payloads to the pipeline handlers. Decode
// errors are returned to the caller for logging; handler outcomes never are.
type Dispatcher struct {
	topics        Topics
	uploads       ObjectFinalizedHandler
	updates       RecordUpdateHandler
	deletes       RecordDeleteHandler
	notifications NotificationHandler
	logger        *slog.Logger
}

func NewDispatcher(topics Topics, uploads ObjectFinalizedHandler, updates RecordUpdateHandler, deletes RecordDeleteHandler, notifications NotificationHandler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		topics:        topics,
		uploads:       uploads,
		updates:       updates,
		deletes:       deletes,
		notifications: notifications,
		logger:        logger,
	}
}

// Dispatch routes one consumed message by topic.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	var err error
	switch msg.Topic {
	case d.topics.Storage:
		err = d.StorageEvent(ctx, msg.Payload)
	case d.topics.Records:
		err = d.RecordChange(ctx, msg.Payload)
	case d.topics.Notifications:
		d.Notification(ctx, msg.Payload)
	default:
		d.logger.Warn("message on unrouted topic", "topic", msg.Topic)
	}
	if err != nil {
		d.logger.Error("dropping undecodable event", "topic", msg.Topic, "error", err)
	}
}

func (d *Dispatcher) StorageEvent(ctx context.Context, payload []byte) error {
	evts, err := DecodeStorageEvents(payload)
	if err != nil {
		return err
	}
	for i := range evts {
		d.uploads.HandleObjectFinalized(ctx, &evts[i])
	}
	return nil
}

func (d *Dispatcher) RecordChange(ctx context.Context, payload []byte) error {
	evt, err := DecodeRecordChange(payload)
	if err != nil {
		return err
	}
	switch evt.Type {
	case model.RecordChangeUpdate:
		d.updates.HandleUpdate(ctx, evt.Before, evt.After)
	case model.RecordChangeDelete:
		d.deletes.HandleDelete(ctx, evt.Before)
	}
	return nil
}

// Notification hands the payload to the completion listener, which does its
// own decoding.
func (d *Dispatcher) Notification(ctx context.Context, payload []byte) {
	d.notifications.Handle(ctx, payload)
}
