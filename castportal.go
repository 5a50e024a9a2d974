// Package castportal is a Google Cast client: multicast DNS discovery of cast
// devices on the local network, and a TLS message channel to one device for
// heartbeat and application availability exchanges.
//
// The package-level operations share one process-wide configuration and test
// mode, mirroring how host runtimes embed the library. Configure and TestCtl
// are not safe to call concurrently with the operations.
package castportal

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"go2tv.app/castportal/internal/castchannel"
	"go2tv.app/castportal/internal/discovery"
	"go2tv.app/castportal/internal/domain"
)

// Device is one discovered cast device.
type Device = domain.Device

// Conn is a live device channel handle.
type Conn = castchannel.Conn

// Mode selects the address families a discovery pass queries.
type Mode = discovery.Mode

const (
	INET4 = discovery.INET4
	INET6 = discovery.INET6
)

// Defaults for the three tunables.
const (
	DefaultApplicationID    = "02834648"
	DefaultDiscoveryTimeout = 5000 * time.Millisecond
	DefaultMessageTimeout   = 500 * time.Millisecond
)

// Config carries the process-wide tunables.
type Config struct {
	Logger *slog.Logger

	// ApplicationID is the receiver application checked by AppAvailable.
	ApplicationID string

	// DiscoveryTimeout is the per-family listen budget of a discovery pass.
	DiscoveryTimeout time.Duration

	// MessageTimeout bounds each receive on a device channel.
	MessageTimeout time.Duration
}

var (
	current  = withDefaults(Config{})
	testMode = 0
)

func withDefaults(cfg Config) Config {
	if cfg.ApplicationID == "" {
		cfg.ApplicationID = DefaultApplicationID
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = DefaultMessageTimeout
	}
	return cfg
}

// Configure replaces the process-wide configuration. Zero fields select the
// documented defaults.
func Configure(cfg Config) {
	current = withDefaults(cfg)
}

// ConfigFromEnv builds a Config from the CASTPORTAL_* environment variables,
// falling back to the defaults for unset or invalid values.
func ConfigFromEnv() Config {
	return withDefaults(Config{
		ApplicationID:    strings.TrimSpace(os.Getenv("CASTPORTAL_APP_ID")),
		DiscoveryTimeout: envMillis("CASTPORTAL_DISCOVERY_TIMEOUT_MS", DefaultDiscoveryTimeout),
		MessageTimeout:   envMillis("CASTPORTAL_MESSAGE_TIMEOUT_MS", DefaultMessageTimeout),
	})
}

func envMillis(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		fmt.Fprintf(os.Stderr, "invalid %s=%q; defaulting to %dms\n", name, raw, fallback.Milliseconds())
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// ParseLogLevel maps a CASTPORTAL_LOG_LEVEL value to a slog level. Empty
// selects info; unrecognized values report and select info.
func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "invalid CASTPORTAL_LOG_LEVEL=%q; defaulting to info\n", raw)
		return slog.LevelInfo
	}
}

// TestCtl sets the process-wide test mode. Mode 0 restores real network and
// TLS operation. Modes 1 and 2 reroute discovery to captured datagrams and
// sessions to an in-memory device that reports the application available
// (1) or unavailable (2); request ids are pinned to match the captures.
func TestCtl(mode int) {
	if mode < 0 || mode > 2 {
		mode = 0
	}
	testMode = mode
}

// Discover runs one discovery pass over the families ipMode selects and
// returns the located devices, IPv4 responses ahead of IPv6. waitMS <= 0
// selects the configured discovery timeout.
func Discover(ipMode Mode, waitMS int) []Device {
	cfg := discovery.Config{
		Logger: current.Logger,
		WaitMS: int(current.DiscoveryTimeout.Milliseconds()),
	}
	if testMode != 0 {
		cfg.Source = discovery.CannedSource{}
	}
	return discovery.NewService(cfg).Discover(ipMode, waitMS)
}

// Connect dials the device at address and establishes the message channel.
// port <= 0 selects the default cast port.
func Connect(address string, port int) (*Conn, error) {
	cfg := castchannel.Config{
		Logger:         current.Logger,
		MessageTimeout: current.MessageTimeout,
	}
	if testMode != 0 {
		fake := castchannel.FakeAppAvailable
		if testMode == 2 {
			fake = castchannel.FakeAppUnavailable
		}
		cfg.DialStream = func(string) (castchannel.Stream, error) {
			return castchannel.NewFakeStream(fake), nil
		}
		cfg.PinRequestIDs = true
	}
	return castchannel.Dial(address, port, cfg)
}

// Ping reports whether the device behind conn answered a heartbeat inside the
// message timeout. A nil or closed handle reports false.
func Ping(conn *Conn) bool {
	if conn == nil {
		return false
	}
	return conn.Ping()
}

// AppAvailable reports whether the configured application can be launched on
// the device behind conn. A nil or closed handle reports false.
func AppAvailable(conn *Conn) bool {
	if conn == nil {
		return false
	}
	return conn.AppAvailability(current.ApplicationID)
}

// Close tears the channel down and reports whether teardown succeeded. A nil
// or already-closed handle reports false.
func Close(conn *Conn) bool {
	if conn == nil {
		return false
	}
	return conn.Close() == nil
}
