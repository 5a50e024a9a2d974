package castchannel

import (
	"errors"
	"fmt"
	"log/slog"

	"go2tv.app/castportal/internal/protocol"
)

const (
	availabilityRequestType = "GET_APP_AVAILABILITY"
	appAvailable            = "APP_AVAILABLE"
	appUnavailable          = "APP_UNAVAILABLE"
)

// connect announces the virtual connection to the device's global receiver.
// The device sends no acknowledgement.
func (c *Conn) connect() error {
	if err := c.send(false, false, protocol.Connection, `{"type": "CONNECT"}`); err != nil {
		return fmt.Errorf("castchannel: connect handshake: %w", err)
	}
	return nil
}

// AdoptSession records the transport id of a launched application session and
// announces the virtual connection to it. Session-addressed sends are refused
// until this has been called.
func (c *Conn) AdoptSession(transportID string) error {
	if !c.connected {
		return ErrClosed
	}
	c.portalSessionID = transportID
	return c.send(true, true, protocol.Connection, `{"type": "CONNECT"}`)
}

// Ping issues a heartbeat PING and reports whether the device answered with
// a PONG inside the message timeout.
func (c *Conn) Ping() bool {
	if err := c.send(false, false, protocol.Heartbeat, `{"type": "PING"}`); err != nil {
		c.logEvent(slog.LevelWarn, "heartbeat_send_failed", slog.String("error", err.Error()))
		return false
	}

	filter := Filter{
		ForSenderSession:   No,
		FromPortalReceiver: No,
		Namespace:          protocol.Heartbeat,
		ExpectJSON:         Yes,
	}
	result, err := c.receive(filter, matchPong, 0)
	if err != nil || result == nil {
		c.logEvent(slog.LevelWarn, "heartbeat_no_pong")
		return false
	}
	return true
}

func matchPong(_ *Conn, payload any) (any, error) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return nil, errors.New("castchannel: heartbeat response is not a JSON object")
	}
	respType, ok := fields["type"].(string)
	if !ok {
		return nil, errors.New("castchannel: heartbeat response carries no type")
	}
	if respType != "PONG" {
		return nil, fmt.Errorf("castchannel: unexpected heartbeat response %q", respType)
	}
	return respType, nil
}

// AppAvailability asks the global receiver whether appID can be launched on
// the device. The response is aligned to the request id assigned at send.
func (c *Conn) AppAvailability(appID string) bool {
	requestID := c.nextRequestID()
	payload := fmt.Sprintf(
		`{"type": "%s", "appId": [ "%s" ], "requestId": %d}`,
		availabilityRequestType, appID, requestID)
	if err := c.send(false, false, protocol.Receiver, payload); err != nil {
		c.logEvent(slog.LevelWarn, "availability_send_failed", slog.String("error", err.Error()))
		return false
	}

	filter := Filter{
		ForSenderSession:   No,
		FromPortalReceiver: No,
		Namespace:          protocol.Receiver,
		ExpectJSON:         Yes,
	}
	result, err := c.receive(filter, availabilityMatcher(appID), requestID)
	if err != nil || result == nil {
		c.logEvent(slog.LevelWarn, "availability_no_response", slog.String("app_id", appID))
		return false
	}
	if result != appAvailable {
		c.logEvent(slog.LevelWarn, "availability_app_unavailable", slog.String("app_id", appID))
		return false
	}
	return true
}

// availabilityMatcher validates a response already aligned by request id, so
// a structural mismatch is an error rather than a frame to skip.
func availabilityMatcher(appID string) Matcher {
	return func(_ *Conn, payload any) (any, error) {
		fields, ok := payload.(map[string]any)
		if !ok {
			return nil, errors.New("castchannel: availability response is not a JSON object")
		}
		respType, ok := fields["responseType"].(string)
		if !ok || respType != availabilityRequestType {
			return nil, fmt.Errorf("castchannel: unexpected availability responseType %v", fields["responseType"])
		}
		statuses, ok := fields["availability"].(map[string]any)
		if !ok {
			return nil, errors.New("castchannel: availability response carries no statuses")
		}
		status, ok := statuses[appID].(string)
		if !ok || (status != appAvailable && status != appUnavailable) {
			return nil, fmt.Errorf("castchannel: unrecognized availability status %v", statuses[appID])
		}
		return status, nil
	}
}

// Close sends a best-effort CLOSE on the connection namespace and releases
// the stream. The connection cannot be used afterwards.
func (c *Conn) Close() error {
	if !c.connected {
		return ErrClosed
	}

	// The channel is going away regardless, so a failed CLOSE is only noise.
	if err := c.send(false, false, protocol.Connection, `{"type": "CLOSE"}`); err != nil {
		c.logEvent(slog.LevelDebug, "channel_close_send_failed", slog.String("error", err.Error()))
	}

	c.connected = false
	c.rolling.Empty()
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("castchannel: close: %w", err)
	}
	c.logEvent(slog.LevelDebug, "channel_closed")
	return nil
}
