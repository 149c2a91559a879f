package core

// Frame is a raw outbound payload, already marshaled for the wire.
type Frame []byte

// SignalConnection abstracts the messaging transport of one member.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
