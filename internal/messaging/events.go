package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EventTypeHeader names the header carrying the event type.
const EventTypeHeader = "event-type"

// DatasetGeneratedType identifies DatasetGenerated payloads.
const DatasetGeneratedType = "dataset.generated"

// DatasetGenerated announces a dataset whose files are all written and closed.
type DatasetGenerated struct {
	Dir         string         `json:"dir"`
	Seed        uint64         `json:"seed"`
	Counts      map[string]int `json:"counts"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// PublishDatasetGenerated encodes and publishes event keyed by its directory.
func PublishDatasetGenerated(ctx context.Context, client Client, event DatasetGenerated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal dataset event: %w", err)
	}
	return client.Publish(ctx, []byte(event.Dir), payload, map[string]string{EventTypeHeader: DatasetGeneratedType})
}

// DecodeDatasetGenerated parses msg, rejecting other event types.
func DecodeDatasetGenerated(msg Message) (DatasetGenerated, error) {
	if t, ok := msg.Headers[EventTypeHeader]; ok && t != DatasetGeneratedType {
		return DatasetGenerated{}, fmt.Errorf("unexpected event type %q", t)
	}
	var event DatasetGenerated
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return DatasetGenerated{}, fmt.Errorf("decode dataset event: %w", err)
	}
	if event.Dir == "" {
		return DatasetGenerated{}, fmt.Errorf("dataset event without dir")
	}
	return event, nil
}
