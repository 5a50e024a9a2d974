// Package protocol defines the CastV2 message model and the length-prefixed
// protobuf frame codec spoken on the device TLS channel.
package protocol

// Global endpoint identifiers. Anything else on the wire is a session id.
const (
	SenderGlobal   = "sender-0"
	ReceiverGlobal = "receiver-0"
)

// Namespace identifies one of the canonical cast channel namespaces.
type Namespace int

const (
	Connection Namespace = iota
	DeviceAuth
	Heartbeat
	Receiver

	// AnyNamespace is a filter wildcard, never valid on the wire.
	AnyNamespace Namespace = -1

	// UnknownNamespace marks an unrecognized wire value.
	UnknownNamespace Namespace = -2
)

var namespaceURNs = [...]string{
	Connection: "urn:x-cast:com.google.cast.tp.connection",
	DeviceAuth: "urn:x-cast:com.google.cast.tp.deviceauth",
	Heartbeat:  "urn:x-cast:com.google.cast.tp.heartbeat",
	Receiver:   "urn:x-cast:com.google.cast.receiver",
}

// URN returns the wire form of the namespace, or "" for sentinels.
func (ns Namespace) URN() string {
	if ns < 0 || int(ns) >= len(namespaceURNs) {
		return ""
	}
	return namespaceURNs[ns]
}

// NamespaceFromURN maps a wire string onto the enumeration, yielding
// UnknownNamespace for anything outside the canonical four.
func NamespaceFromURN(urn string) Namespace {
	for ns, known := range namespaceURNs {
		if urn == known {
			return Namespace(ns)
		}
	}
	return UnknownNamespace
}

// PayloadType discriminates the two cast payload encodings.
type PayloadType int32

const (
	PayloadString PayloadType = 0
	PayloadBinary PayloadType = 1
)

// Message is one decoded (or to-be-encoded) cast channel message. Exactly one
// of PayloadUTF8 / Binary carries content, selected by PayloadType.
type Message struct {
	SourceID      string
	DestinationID string
	Namespace     Namespace
	PayloadType   PayloadType
	PayloadUTF8   string
	Binary        []byte
}

// FromGlobalReceiver reports whether the message originates from the device's
// platform receiver rather than an application session.
func (m *Message) FromGlobalReceiver() bool { return m.SourceID == ReceiverGlobal }

// ForGlobalSender reports whether the message is addressed to the global
// sender endpoint rather than an application session.
func (m *Message) ForGlobalSender() bool { return m.DestinationID == SenderGlobal }
