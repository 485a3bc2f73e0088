package eventlog

import (
	"bytes"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"
)

// stubConn implements conn.Info for tests.
type stubConn struct {
	clientID   string
	remoteAddr net.Addr
	cleanStart bool
	expiry     uint32
	hasExpiry  bool
}

func (s *stubConn) ClientID() string                       { return s.clientID }
func (s *stubConn) RemoteAddr() net.Addr                   { return s.remoteAddr }
func (s *stubConn) CleanStart() bool                       { return s.cleanStart }
func (s *stubConn) SessionExpiryInterval() (uint32, bool)  { return s.expiry, s.hasExpiry }
func (s *stubConn) ReceiveMaximum() (int, bool)            { return 0, false }

func newTestLog(opts ...Option) (*Log, *bytes.Buffer) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	return New(base, opts...), &buf
}

func TestClientConnected(t *testing.T) {
	t.Run("with ip", func(t *testing.T) {
		log, buf := newTestLog()
		log.ClientConnected(&stubConn{
			clientID:   "clientId_",
			remoteAddr: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234},
			expiry:     123,
			hasExpiry:  true,
		})

		want := "Client ID: clientId_, IP: 127.0.0.1, Clean Start: false, Session Expiry: 123 connected."
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output, got %q", want, buf.String())
		}
		if !strings.Contains(buf.String(), LoggerClientConnected) {
			t.Error("expected event logger name in output")
		}
	})

	t.Run("unknown ip", func(t *testing.T) {
		log, buf := newTestLog()
		log.ClientConnected(&stubConn{clientID: "clientId_"})

		if !strings.Contains(buf.String(), "IP: UNKNOWN") {
			t.Errorf("expected UNKNOWN ip, got %q", buf.String())
		}
	})
}

func TestClientDisconnected(t *testing.T) {
	c := &stubConn{clientID: "clientId_"}

	t.Run("gracefully", func(t *testing.T) {
		log, buf := newTestLog()
		log.ClientDisconnectedGracefully(c, "")

		if !strings.Contains(buf.String(), "Client ID: clientId_, IP: UNKNOWN disconnected gracefully.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("gracefully with reason", func(t *testing.T) {
		log, buf := newTestLog()
		log.ClientDisconnectedGracefully(c, "normal disconnection")

		if !strings.Contains(buf.String(), "Reason given by client: normal disconnection.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("ungracefully", func(t *testing.T) {
		log, buf := newTestLog()
		log.ClientDisconnectedUngracefully(c)

		if !strings.Contains(buf.String(), "disconnected ungracefully.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("by server", func(t *testing.T) {
		log, buf := newTestLog()
		log.ClientWasDisconnected(c, "its a reason")

		if !strings.Contains(buf.String(), "was disconnected. reason: its a reason.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestMessageDropped(t *testing.T) {
	t.Run("publish", func(t *testing.T) {
		log, buf := newTestLog()
		log.MessageDropped("clientId_", "topic/a", 1, "its a reason")

		want := "Outgoing publish message was dropped. Receiving client: clientId_, topic: topic/a, qos: 1, reason: its a reason."
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q, got %q", want, buf.String())
		}
	})

	t.Run("shared subscription", func(t *testing.T) {
		log, buf := newTestLog()
		log.SharedSubscriptionMessageDropped("groupA", "topic/a", 1, "its a reason")

		want := "Receiving shared subscription group: groupA, topic: topic/a, qos: 1, reason: its a reason."
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q, got %q", want, buf.String())
		}
	})

	t.Run("control packet", func(t *testing.T) {
		log, buf := newTestLog()
		log.MQTTMessageDropped("clientId_", "PUBACK", "its a reason")

		want := "Outgoing MQTT packet was dropped. Receiving client: clientId_, messageType: PUBACK, reason: its a reason."
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q, got %q", want, buf.String())
		}
	})
}

func TestSessionExpired(t *testing.T) {
	log, buf := newTestLog()
	expiredAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	log.SessionExpired("clientId_", expiredAt)

	want := "Client ID: clientId_ session has expired at 2024-05-01T12:00:00Z. All persistent data for this client was removed."
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestDropThrottling(t *testing.T) {
	log, buf := newTestLog(WithDropLogLimit(1, 2))

	for i := 0; i < 10; i++ {
		log.MessageDropped("clientId_", "topic/a", 0, "queue full")
	}

	emitted := strings.Count(buf.String(), "was dropped")
	if emitted != 2 {
		t.Errorf("expected burst of 2 drop events, got %d", emitted)
	}

	// Connect events are never throttled.
	log.ClientConnected(&stubConn{clientID: "other"})
	if !strings.Contains(buf.String(), "connected.") {
		t.Error("connect event should bypass the drop limiter")
	}
}
