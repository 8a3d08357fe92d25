package pubsub

// PubSubClient is the engine's view of the message transport. Delivery is
// at-least-once and unordered; every consumer must tolerate redelivery.
type PubSubClient interface {
	SendMessage(topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
	Close() error
}
