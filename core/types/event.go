package types

// Event represents a typed event emitted during state transitions. The host
// records events in emission order; attributes are kept as plain strings so
// the payload stays serialization-neutral.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
