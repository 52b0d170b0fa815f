package bus

import "context"

// Frame is the unit crossing the broadcast transport. Payload is an opaque
// encoded message; Room lets receivers filter without decoding; Origin
// identifies the publishing registry instance so it can discard its own
// frames when the transport echoes them back.
type Frame struct {
	Origin  string `json:"origin"`
	Room    string `json:"room"`
	Payload []byte `json:"payload"`
}

// Handler receives frames published by any participant on the bus,
// possibly including the local one. Called from a bus goroutine.
type Handler func(Frame)

// Bus is a fire-and-forget broadcast medium shared by every simulated tab.
// There are no acks and no ordering guarantees across publishers; slow
// consumers may miss frames.
type Bus interface {
	// Publish broadcasts a frame. A nil error means the frame was handed
	// to the transport, not that anyone received it.
	Publish(ctx context.Context, f Frame) error

	// Subscribe registers a handler for every published frame and returns
	// a cancel function that deregisters exactly that handler.
	Subscribe(h Handler) (cancel func())

	// Close shuts down the bus and drops all subscriptions.
	Close() error
}
