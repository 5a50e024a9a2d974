package castchannel

import (
	"errors"
	"net"
	"os"
	"time"

	"go2tv.app/castportal/internal/protocol"
	"go2tv.app/castportal/internal/wirebuf"
)

// FakeMode selects the canned availability verdict a fake device reports.
type FakeMode int

const (
	FakeAppAvailable   FakeMode = 1
	FakeAppUnavailable FakeMode = 2
)

// NewFakeStream returns an in-memory device stream. Written frames are
// decoded and answered with captured device responses: heartbeat requests
// with a PONG, receiver requests with the availability verdict for mode.
// Connection namespace traffic is accepted silently, as a real device does.
func NewFakeStream(mode FakeMode) Stream {
	return &fakeDevice{mode: mode, inbound: wirebuf.New(readBufferInitial)}
}

type fakeDevice struct {
	mode    FakeMode
	inbound *wirebuf.Buffer
	pending []byte
	closed  bool
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	if d.closed {
		return 0, net.ErrClosed
	}
	if err := d.inbound.Append(p); err != nil {
		return 0, err
	}
	for {
		msg, err := protocol.DecodeFrame(d.inbound)
		if errors.Is(err, protocol.ErrIncomplete) {
			return len(p), nil
		}
		if err != nil {
			return 0, err
		}
		switch msg.Namespace {
		case protocol.Heartbeat:
			d.pending = append(d.pending, cannedPongFrame...)
		case protocol.Receiver:
			if d.mode == FakeAppAvailable {
				d.pending = append(d.pending, cannedAppAvailableFrame...)
			} else {
				d.pending = append(d.pending, cannedAppUnavailableFrame...)
			}
		}
	}
}

// Read hands out whatever responses are queued. With nothing queued it
// reports a deadline expiry immediately, so receive loops spend no real time
// waiting on a device that has already said everything it will say.
func (d *fakeDevice) Read(p []byte) (int, error) {
	if d.closed {
		return 0, net.ErrClosed
	}
	if len(d.pending) == 0 {
		return 0, os.ErrDeadlineExceeded
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *fakeDevice) SetReadDeadline(time.Time) error { return nil }

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}
