package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/learnhub/api/internal/model"
	"github.com/segmentio/kafka-go"
)

// StatusPublisher publishes every content record change to the status topic,
// keyed by content id so one record's changes stay ordered.
type StatusPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *slog.Logger
}

func NewStatusPublisher(brokers []string, topic string, logger *slog.Logger) (*StatusPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return &StatusPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic:  topic,
		logger: logger,
	}, nil
}

// ContentChanged is best effort: publish failures are logged.
func (p *StatusPublisher) ContentChanged(ctx context.Context, content *model.Content) {
	payload, err := json.Marshal(StatusEvent(content))
	if err != nil {
		p.logger.Error("failed to marshal status event", "content_id", content.ID, "error", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(content.ID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.Warn("failed to publish status event", "content_id", content.ID, "topic", p.topic, "error", err)
	}
}

func (p *StatusPublisher) Close() error {
	return p.writer.Close()
}

// StatusEvent is the status message shared by the kafka topic and the
// websocket stream.
func StatusEvent(content *model.Content) model.WSStatusMessage {
	return model.WSStatusMessage{
		Type:             model.WSMessageTypeStatus,
		ContentID:        content.ID,
		TranscodeStatus:  content.TranscodeStatus,
		TranscodeJobName: content.TranscodeJobName,
		HLSURL:           content.HLSURL,
		ErrorMessage:     content.ErrorMessage,
		Attempt:          content.TranscodeAttempt,
	}
}
