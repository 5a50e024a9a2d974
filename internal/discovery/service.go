// Package discovery locates cast devices on the local network. A pass issues
// the multicast DNS query once per requested address family, listens for the
// wait budget, and assembles a device record from every well-formed response.
package discovery

import (
	"context"
	"log/slog"

	"go2tv.app/castportal/internal/domain"
	"go2tv.app/castportal/internal/mdns"
)

// Mode is a bitset selecting the address families a discovery pass covers.
type Mode int

const (
	INET4 Mode = 1 << iota
	INET6
)

// Family identifies one address family leg of a pass.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv6 {
		return "ipv6"
	}
	return "ipv4"
}

const (
	// DefaultWaitMS is the per-family listen budget applied when the caller
	// does not supply one.
	DefaultWaitMS = 5000

	defaultDeviceModel = "Chromecast"
	defaultDevicePort  = 8009
)

// ResponseSource runs the query/listen exchange for one address family,
// handing every inbound datagram to deliver together with the address it
// arrived from, until the wait budget is spent.
type ResponseSource interface {
	Listen(family Family, waitMS int, deliver func(pkt []byte, source string)) error
}

// Config carries the discovery collaborators and tunables.
type Config struct {
	Logger *slog.Logger

	// Source replaces the multicast network source, used to feed a pass from
	// captured datagrams. Nil selects real multicast sockets.
	Source ResponseSource

	// WaitMS is the per-family budget used when Discover is called with a
	// non-positive wait. Zero selects the default of 5000ms.
	WaitMS int
}

// Service runs discovery passes. Safe for sequential use only.
type Service struct {
	logger *slog.Logger
	source ResponseSource
	waitMS int
}

func NewService(cfg Config) *Service {
	source := cfg.Source
	if source == nil {
		source = MulticastSource{}
	}
	waitMS := cfg.WaitMS
	if waitMS <= 0 {
		waitMS = DefaultWaitMS
	}
	return &Service{
		logger: cfg.Logger,
		source: source,
		waitMS: waitMS,
	}
}

// Discover runs one pass over the families mode selects, IPv4 before IPv6.
// Each family gets the full wait budget; a family whose source fails is
// skipped so the other can still report. waitMS <= 0 selects the configured
// default.
func (s *Service) Discover(mode Mode, waitMS int) []domain.Device {
	if waitMS <= 0 {
		waitMS = s.waitMS
	}

	legs := []struct {
		flag   Mode
		family Family
	}{
		{INET4, FamilyIPv4},
		{INET6, FamilyIPv6},
	}

	found := []domain.Device{}
	for _, leg := range legs {
		if mode&leg.flag == 0 {
			continue
		}
		err := s.source.Listen(leg.family, waitMS, func(pkt []byte, source string) {
			record, err := mdns.DecodeResponse(pkt)
			if err != nil {
				s.logEvent(slog.LevelWarn, "discovery_datagram_rejected",
					slog.String("family", leg.family.String()),
					slog.String("error", err.Error()))
				return
			}
			device := assembleDevice(record, source)
			s.logEvent(slog.LevelDebug, "discovery_device_found",
				slog.String("family", leg.family.String()),
				slog.String("name", device.Name),
				slog.String("ip_addr", device.IPAddr))
			found = append(found, device)
		})
		if err != nil {
			s.logEvent(slog.LevelWarn, "discovery_family_skipped",
				slog.String("family", leg.family.String()),
				slog.String("error", err.Error()))
		}
	}
	return found
}

// assembleDevice fills the gaps a sparse response leaves: the datagram source
// address stands in for the device address, and model and port fall back to
// the values first generation devices advertise.
func assembleDevice(record *mdns.Record, source string) domain.Device {
	device := domain.Device{
		ID:     record.ID,
		Name:   record.Name,
		Model:  record.Model,
		IPAddr: source,
		Port:   record.Port,
	}
	if device.Model == "" {
		device.Model = defaultDeviceModel
	}
	if device.Port == 0 {
		device.Port = defaultDevicePort
	}
	return device
}

func (s *Service) logEvent(level slog.Level, msg string, attrs ...any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Log(context.Background(), level, msg, attrs...)
}
