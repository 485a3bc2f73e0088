// Package eventlog emits the broker's structured lifecycle events.
//
// Connect, disconnect, drop and session-expiry events go to dedicated
// event loggers so operators can route them independently of the
// regular application log. Callers hand over already-resolved facts;
// this package only formats and emits them.
package eventlog

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/petrelmq/petrelmq/internal/conn"
)

// Event logger names.
const (
	LoggerClientConnected    = "event.client-connected"
	LoggerClientDisconnected = "event.client-disconnected"
	LoggerMessageDropped     = "event.message-dropped"
	LoggerSessionExpired     = "event.client-session-expired"
)

// Log is the broker event sink.
type Log struct {
	connected    *slog.Logger
	disconnected *slog.Logger
	dropped      *slog.Logger
	expired      *slog.Logger

	// dropLimiter throttles drop events; a flooding subscriber must not
	// drown the event log. Nil means unlimited.
	dropLimiter *rate.Limiter
}

// Option configures the event log.
type Option func(*Log)

// WithDropLogLimit throttles message-drop events to perSecond events
// with the given burst.
func WithDropLogLimit(perSecond float64, burst int) Option {
	return func(l *Log) {
		l.dropLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates an event log on top of the given base logger.
func New(base *slog.Logger, opts ...Option) *Log {
	if base == nil {
		base = slog.Default()
	}

	l := &Log{
		connected:    base.With("logger", LoggerClientConnected),
		disconnected: base.With("logger", LoggerClientDisconnected),
		dropped:      base.With("logger", LoggerMessageDropped),
		expired:      base.With("logger", LoggerSessionExpired),
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ip resolves the loggable remote IP of a connection.
func ip(c conn.Info) string {
	if addr, ok := conn.IP(c); ok {
		return addr
	}
	return conn.UnknownIP
}

// ClientConnected logs a successful client connect.
func (l *Log) ClientConnected(c conn.Info) {
	expiry, _ := c.SessionExpiryInterval()
	l.connected.Info(
		fmt.Sprintf("Client ID: %s, IP: %s, Clean Start: %t, Session Expiry: %d connected.",
			c.ClientID(), ip(c), c.CleanStart(), expiry),
		"client_id", c.ClientID(),
	)
}

// ClientDisconnectedGracefully logs a client-initiated disconnect. The
// optional reason comes from the client's DISCONNECT reason string.
func (l *Log) ClientDisconnectedGracefully(c conn.Info, reason string) {
	msg := fmt.Sprintf("Client ID: %s, IP: %s disconnected gracefully.", c.ClientID(), ip(c))
	if reason != "" {
		msg += fmt.Sprintf(" Reason given by client: %s.", reason)
	}
	l.disconnected.Info(msg, "client_id", c.ClientID())
}

// ClientDisconnectedUngracefully logs a connection lost without a
// DISCONNECT packet.
func (l *Log) ClientDisconnectedUngracefully(c conn.Info) {
	l.disconnected.Info(
		fmt.Sprintf("Client ID: %s, IP: %s disconnected ungracefully.", c.ClientID(), ip(c)),
		"client_id", c.ClientID(),
	)
}

// ClientWasDisconnected logs a server-initiated disconnect.
func (l *Log) ClientWasDisconnected(c conn.Info, reason string) {
	l.disconnected.Info(
		fmt.Sprintf("Client ID: %s, IP: %s was disconnected. reason: %s.", c.ClientID(), ip(c), reason),
		"client_id", c.ClientID(),
	)
}

// MessageDropped logs an outgoing publish dropped before delivery.
func (l *Log) MessageDropped(clientID, topic string, qos int, reason string) {
	if !l.allowDrop() {
		return
	}
	l.dropped.Info(
		fmt.Sprintf("Outgoing publish message was dropped. Receiving client: %s, topic: %s, qos: %d, reason: %s.",
			clientID, topic, qos, reason),
		"client_id", clientID, "topic", topic, "qos", qos,
	)
}

// SharedSubscriptionMessageDropped logs a publish dropped for a shared
// subscription group.
func (l *Log) SharedSubscriptionMessageDropped(group, topic string, qos int, reason string) {
	if !l.allowDrop() {
		return
	}
	l.dropped.Info(
		fmt.Sprintf("Outgoing publish message was dropped. Receiving shared subscription group: %s, topic: %s, qos: %d, reason: %s.",
			group, topic, qos, reason),
		"group", group, "topic", topic, "qos", qos,
	)
}

// MQTTMessageDropped logs a non-publish control packet dropped before
// delivery.
func (l *Log) MQTTMessageDropped(clientID, messageType, reason string) {
	if !l.allowDrop() {
		return
	}
	l.dropped.Info(
		fmt.Sprintf("Outgoing MQTT packet was dropped. Receiving client: %s, messageType: %s, reason: %s.",
			clientID, messageType, reason),
		"client_id", clientID, "message_type", messageType,
	)
}

// SessionExpired logs the removal of an expired client session.
func (l *Log) SessionExpired(clientID string, expiredAt time.Time) {
	l.expired.Info(
		fmt.Sprintf("Client ID: %s session has expired at %s. All persistent data for this client was removed.",
			clientID, expiredAt.Format(time.RFC3339)),
		"client_id", clientID,
	)
}

func (l *Log) allowDrop() bool {
	return l.dropLimiter == nil || l.dropLimiter.Allow()
}
