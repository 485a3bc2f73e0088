// Package conn exposes read-only access to per-connection client
// metadata.
//
// The payload engine and the event log only ever observe connections;
// ownership of the live connection state stays with the transport layer,
// which implements Info. Every accessor is safe to call on a connection
// in any state.
package conn

import "net"

// UnknownIP is the placeholder used when a connection has no usable
// remote address.
const UnknownIP = "UNKNOWN"

// Info is a read-only view of one client connection's metadata.
type Info interface {
	// ClientID returns the client identifier negotiated at connect.
	ClientID() string

	// RemoteAddr returns the connection's remote address, or nil if the
	// transport cannot provide one.
	RemoteAddr() net.Addr

	// CleanStart reports whether the client connected with a clean start.
	CleanStart() bool

	// SessionExpiryInterval returns the client's session expiry in
	// seconds, or ok=false if the client did not set one.
	SessionExpiryInterval() (uint32, bool)

	// ReceiveMaximum returns the client's receive maximum, or ok=false
	// if the client did not set one.
	ReceiveMaximum() (int, bool)
}

// IP returns the remote IP of the connection as a string. Addresses
// that are not IP-based (for example unix sockets) yield ok=false.
func IP(info Info) (string, bool) {
	switch addr := info.RemoteAddr().(type) {
	case *net.TCPAddr:
		return addr.IP.String(), true
	case *net.UDPAddr:
		return addr.IP.String(), true
	default:
		return "", false
	}
}

// MaxInflightWindow returns the number of in-flight messages allowed
// towards a client: the client's receive maximum clamped by the
// server-wide cap.
func MaxInflightWindow(info Info, serverMax int) int {
	receiveMax, ok := info.ReceiveMaximum()
	if !ok {
		return serverMax
	}
	if receiveMax < serverMax {
		return receiveMax
	}
	return serverMax
}
