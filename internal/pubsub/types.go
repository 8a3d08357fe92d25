package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client *pubsub.Client
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	// EventRecordWritten carries a RecordEvent for every create or update in
	// one of the three record collections.
	EventRecordWritten EventType = "record-written"
	// EventRebuildHistory requests a history rebuild for one athlete, used
	// by the manual repair endpoint.
	EventRebuildHistory EventType = "rebuild-history"
)

// Change kinds for RecordEvent.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// RecordEvent is the tagged change notification for one document write.
// Created carries only After, Updated carries both snapshots, Deleted
// carries only Before.
type RecordEvent struct {
	Collection string         `msgpack:"collection"`
	ID         string         `msgpack:"id"`
	Kind       string         `msgpack:"kind"`
	Before     map[string]any `msgpack:"before,omitempty"`
	After      map[string]any `msgpack:"after,omitempty"`
}

// RebuildRequest asks for a full history rebuild of one athlete.
type RebuildRequest struct {
	GlobalID string `msgpack:"globalId"`
}
