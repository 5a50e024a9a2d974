package castchannel

import (
	"errors"
	"os"
	"testing"
	"time"

	"go2tv.app/castportal/internal/protocol"
	"go2tv.app/castportal/internal/wirebuf"
)

// scriptStream records every frame the channel writes and feeds back a
// scripted byte sequence on reads.
type scriptStream struct {
	writes  []*protocol.Message
	replies []byte
	closed  bool
}

func (s *scriptStream) Write(p []byte) (int, error) {
	buf := wirebuf.New(len(p))
	if err := buf.Append(p); err != nil {
		return 0, err
	}
	for {
		msg, err := protocol.DecodeFrame(buf)
		if errors.Is(err, protocol.ErrIncomplete) {
			break
		}
		if err != nil {
			return 0, err
		}
		s.writes = append(s.writes, msg)
	}
	return len(p), nil
}

func (s *scriptStream) Read(p []byte) (int, error) {
	if len(s.replies) == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	n := copy(p, s.replies)
	s.replies = s.replies[n:]
	return n, nil
}

func (s *scriptStream) SetReadDeadline(time.Time) error { return nil }

func (s *scriptStream) Close() error {
	s.closed = true
	return nil
}

func testConn(s Stream) *Conn {
	return &Conn{
		stream:          s,
		rolling:         wirebuf.New(readBufferInitial),
		senderSessionID: "sender-11e9b2c4-checks",
		msgTimeout:      50 * time.Millisecond,
		connected:       true,
	}
}

func dialScript(script *scriptStream) func(addr string) (Stream, error) {
	return func(string) (Stream, error) { return script, nil }
}

func TestDialIssuesConnectHandshake(t *testing.T) {
	script := &scriptStream{}
	conn, err := Dial("10.11.12.13", 0, Config{DialStream: dialScript(script)})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if len(script.writes) != 1 {
		t.Fatalf("wrote %d messages during dial, want 1", len(script.writes))
	}
	msg := script.writes[0]
	if msg.Namespace != protocol.Connection {
		t.Errorf("handshake namespace = %d", msg.Namespace)
	}
	if msg.SourceID != protocol.SenderGlobal || msg.DestinationID != protocol.ReceiverGlobal {
		t.Errorf("handshake endpoints = %q -> %q", msg.SourceID, msg.DestinationID)
	}
	if msg.PayloadUTF8 != `{"type": "CONNECT"}` {
		t.Errorf("handshake payload = %q", msg.PayloadUTF8)
	}
}

func TestPingAgainstFakeDevice(t *testing.T) {
	conn, err := Dial("device.local", 8009, Config{
		DialStream:    func(string) (Stream, error) { return NewFakeStream(FakeAppAvailable), nil },
		PinRequestIDs: true,
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if !conn.Ping() {
		t.Fatal("ping against fake device failed")
	}
}

func TestAppAvailabilityVerdicts(t *testing.T) {
	cases := []struct {
		name string
		mode FakeMode
		want bool
	}{
		{"available", FakeAppAvailable, true},
		{"unavailable", FakeAppUnavailable, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, err := Dial("device.local", 8009, Config{
				DialStream:    func(string) (Stream, error) { return NewFakeStream(tc.mode), nil },
				PinRequestIDs: true,
			})
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			t.Cleanup(func() { _ = conn.Close() })

			if got := conn.AppAvailability("02834648"); got != tc.want {
				t.Fatalf("availability = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppAvailabilityIgnoresMismatchedRequestID(t *testing.T) {
	script := &scriptStream{}
	conn := testConn(script)
	conn.requestID = 4

	// The scripted response carries requestId 1, the request goes out as 5.
	script.replies = append(script.replies, cannedAppAvailableFrame...)
	if conn.AppAvailability("02834648") {
		t.Fatal("availability matched a response for a different request")
	}
}

func TestReceiveSkipsFramesOutsideFilter(t *testing.T) {
	script := &scriptStream{}
	conn := testConn(script)
	conn.pinRequestIDs = true

	// A heartbeat PONG arrives ahead of the availability response; the
	// receiver-namespace filter must pass over it.
	script.replies = append(script.replies, cannedPongFrame...)
	script.replies = append(script.replies, cannedAppAvailableFrame...)
	if !conn.AppAvailability("02834648") {
		t.Fatal("availability response not found behind unrelated frame")
	}
}

func TestMalformedFrameDoesNotPoisonChannel(t *testing.T) {
	script := &scriptStream{}
	conn := testConn(script)

	script.replies = append(script.replies, 0x00, 0x00, 0x00, 0x02, 0x08, 0x07)
	script.replies = append(script.replies, cannedPongFrame...)
	if !conn.Ping() {
		t.Fatal("ping failed after discardable malformed frame")
	}
}

func TestReceiveTimesOutWithoutResponse(t *testing.T) {
	conn := testConn(&scriptStream{})
	if conn.Ping() {
		t.Fatal("ping succeeded with a silent device")
	}
}

func TestCloseSendsCloseAndRefusesReuse(t *testing.T) {
	script := &scriptStream{}
	conn, err := Dial("device.local", 8009, Config{DialStream: dialScript(script)})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !script.closed {
		t.Error("underlying stream left open")
	}
	last := script.writes[len(script.writes)-1]
	if last.Namespace != protocol.Connection || last.PayloadUTF8 != `{"type": "CLOSE"}` {
		t.Errorf("final message = ns %d payload %q", last.Namespace, last.PayloadUTF8)
	}

	if err := conn.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second close err = %v, want ErrClosed", err)
	}
	if conn.Ping() {
		t.Fatal("ping succeeded on closed connection")
	}
}

func TestSessionSendsRequireAdoptedSession(t *testing.T) {
	script := &scriptStream{}
	conn := testConn(script)

	if err := conn.send(true, true, protocol.Connection, `{"type": "CONNECT"}`); !errors.Is(err, ErrNoSession) {
		t.Fatalf("session send err = %v, want ErrNoSession", err)
	}

	if err := conn.AdoptSession("transport-7f9"); err != nil {
		t.Fatalf("adopt session: %v", err)
	}
	last := script.writes[len(script.writes)-1]
	if last.SourceID != conn.senderSessionID || last.DestinationID != "transport-7f9" {
		t.Errorf("session connect endpoints = %q -> %q", last.SourceID, last.DestinationID)
	}
}
