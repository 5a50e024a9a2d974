// Package castchannel maintains the TLS message channel to a single cast
// device: dialing and handshake, the CastV2 frame loop over a rolling read
// buffer, filtered receives with per-call wall-clock budgets, and the
// connection, heartbeat and receiver namespace exchanges.
package castchannel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"go2tv.app/castportal/internal/protocol"
	"go2tv.app/castportal/internal/wirebuf"
)

const (
	// DefaultPort is the TCP port cast devices listen on for TLS channels.
	DefaultPort = 8009

	defaultMessageTimeout = 500 * time.Millisecond
	readChunkSize         = 1024
	readBufferInitial     = 1024
)

var (
	// ErrClosed reports use of a connection after Close.
	ErrClosed = errors.New("castchannel: connection closed")

	// ErrNoSession reports a session-addressed send before any application
	// session has been established on the connection.
	ErrNoSession = errors.New("castchannel: no application session")
)

// Stream is the byte-stream surface the channel drives. *tls.Conn satisfies
// it; tests substitute an in-memory device.
type Stream interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Config carries the channel collaborators and tunables.
type Config struct {
	Logger *slog.Logger

	// MessageTimeout bounds each receive call. Zero selects the default
	// of 500ms.
	MessageTimeout time.Duration

	// DialStream replaces the TLS dialer, used to route the channel at an
	// in-memory device. Nil selects real TLS.
	DialStream func(addr string) (Stream, error)

	// PinRequestIDs forces request ids to 1, matching the fixed ids baked
	// into the canned device responses.
	PinRequestIDs bool
}

// Conn is one live device channel. Not safe for concurrent use; the protocol
// is a strict request/response alternation driven by the caller.
type Conn struct {
	logger          *slog.Logger
	stream          Stream
	rolling         *wirebuf.Buffer
	requestID       int32
	senderSessionID string
	portalSessionID string
	msgTimeout      time.Duration
	pinRequestIDs   bool
	connected       bool
}

// Dial establishes the TLS channel to host:port and issues the CONNECT
// handshake on the connection namespace. port <= 0 selects the default.
func Dial(host string, port int, cfg Config) (*Conn, error) {
	if port <= 0 {
		port = DefaultPort
	}
	timeout := cfg.MessageTimeout
	if timeout <= 0 {
		timeout = defaultMessageTimeout
	}
	dial := cfg.DialStream
	if dial == nil {
		dial = dialTLS
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	stream, err := dial(addr)
	if err != nil {
		return nil, fmt.Errorf("castchannel: dial %s: %w", addr, err)
	}

	c := &Conn{
		logger:          cfg.Logger,
		stream:          stream,
		rolling:         wirebuf.New(readBufferInitial),
		senderSessionID: "sender-" + uuid.NewString(),
		msgTimeout:      timeout,
		pinRequestIDs:   cfg.PinRequestIDs,
		connected:       true,
	}
	c.logEvent(slog.LevelDebug, "channel_dialed", slog.String("addr", addr))

	if err := c.connect(); err != nil {
		_ = stream.Close()
		c.connected = false
		return nil, err
	}
	return c, nil
}

// dialTLS performs the synchronous client handshake. Devices present
// self-signed certificates, so verification is disabled; there is no pinning
// layer in this channel.
func dialTLS(addr string) (Stream, error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// nextRequestID assigns the id for an outbound request just before send.
func (c *Conn) nextRequestID() int32 {
	c.requestID++
	if c.pinRequestIDs {
		return 1
	}
	return c.requestID
}

// send frames and writes one message. The boolean pair selects between the
// global endpoints and the per-connection session identifiers.
func (c *Conn) send(fromSenderSession, toPortalReceiver bool, ns protocol.Namespace, payload string) error {
	if !c.connected {
		return ErrClosed
	}

	sourceID := protocol.SenderGlobal
	if fromSenderSession {
		sourceID = c.senderSessionID
	}
	destinationID := protocol.ReceiverGlobal
	if toPortalReceiver {
		if c.portalSessionID == "" {
			return ErrNoSession
		}
		destinationID = c.portalSessionID
	}

	frame := wirebuf.New(128)
	msg := &protocol.Message{
		SourceID:      sourceID,
		DestinationID: destinationID,
		Namespace:     ns,
		PayloadType:   protocol.PayloadString,
		PayloadUTF8:   payload,
	}
	if err := protocol.AppendFrame(frame, msg); err != nil {
		return err
	}
	if _, err := c.stream.Write(frame.Bytes()); err != nil {
		c.logEvent(slog.LevelWarn, "channel_write_failed", slog.String("error", err.Error()))
		return fmt.Errorf("castchannel: write: %w", err)
	}
	c.logEvent(slog.LevelDebug, "channel_message_sent",
		slog.String("namespace", ns.URN()), slog.Int("bytes", frame.Len()))
	return nil
}

// Tristate is a three-valued filter condition.
type Tristate int

const (
	Any Tristate = iota
	No
	Yes
)

func (t Tristate) admits(actual bool) bool {
	switch t {
	case Yes:
		return actual
	case No:
		return !actual
	default:
		return true
	}
}

// Filter selects which inbound frames reach the matcher. Namespace uses
// protocol.AnyNamespace as its wildcard.
type Filter struct {
	ForSenderSession   Tristate
	FromPortalReceiver Tristate
	Namespace          protocol.Namespace
	ExpectJSON         Tristate
}

// Matcher inspects one filtered payload: a map[string]any for JSON frames or
// a []byte for binary ones. Returning (nil, nil) keeps reading; a non-nil
// error stops the receive as failed; any other value stops the receive and is
// handed to the caller.
type Matcher func(c *Conn, payload any) (any, error)

// receive reads frames until the matcher resolves or the message timeout
// budget is spent. requestID > 0 additionally requires JSON payloads to carry
// that requestId. Budget exhaustion returns (nil, nil).
func (c *Conn) receive(filter Filter, matcher Matcher, requestID int32) (any, error) {
	if !c.connected {
		return nil, ErrClosed
	}

	deadline := time.Now().Add(c.msgTimeout)
	chunk := make([]byte, readChunkSize)
	for {
		for {
			msg, err := protocol.DecodeFrame(c.rolling)
			if errors.Is(err, protocol.ErrIncomplete) {
				break
			}
			if err != nil {
				c.logEvent(slog.LevelWarn, "channel_frame_discarded", slog.String("error", err.Error()))
				continue
			}

			result, err := c.dispatch(msg, filter, matcher, requestID)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		if err := c.stream.SetReadDeadline(time.Now().Add(remaining)); err != nil {
			return nil, fmt.Errorf("castchannel: arm read deadline: %w", err)
		}
		n, err := c.stream.Read(chunk)
		if n > 0 {
			if err := c.rolling.Append(chunk[:n]); err != nil {
				return nil, err
			}
		}
		if err != nil {
			if isTimeout(err) {
				return nil, nil
			}
			c.rolling.Empty()
			c.connected = false
			c.logEvent(slog.LevelWarn, "channel_read_failed", slog.String("error", err.Error()))
			return nil, fmt.Errorf("castchannel: read: %w", err)
		}
	}
}

// dispatch applies the filter and matcher to one decoded frame. A nil, nil
// return means the frame did not resolve the receive.
func (c *Conn) dispatch(msg *protocol.Message, filter Filter, matcher Matcher, requestID int32) (any, error) {
	isSenderSession := !msg.ForGlobalSender()
	isPortalReceiver := !msg.FromGlobalReceiver()
	isJSON := msg.PayloadType == protocol.PayloadString

	if !filter.ForSenderSession.admits(isSenderSession) ||
		!filter.FromPortalReceiver.admits(isPortalReceiver) ||
		!filter.ExpectJSON.admits(isJSON) {
		return nil, nil
	}
	if filter.Namespace != protocol.AnyNamespace && filter.Namespace != msg.Namespace {
		return nil, nil
	}

	if !isJSON {
		return matcher(c, msg.Binary)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(msg.PayloadUTF8), &decoded); err != nil {
		c.logEvent(slog.LevelWarn, "channel_json_invalid", slog.String("error", err.Error()))
		return nil, nil
	}
	if requestID > 0 {
		got, ok := decoded["requestId"].(float64)
		if !ok || int32(got) != requestID {
			return nil, nil
		}
	}
	return matcher(c, decoded)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Conn) logEvent(level slog.Level, msg string, attrs ...any) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Log(context.Background(), level, msg, attrs...)
}
