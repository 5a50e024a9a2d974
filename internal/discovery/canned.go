package discovery

import "go2tv.app/castportal/internal/mdns"

// CannedSource replays one captured device response per family instead of
// touching the network. It backs the library's offline test mode.
type CannedSource struct{}

func (CannedSource) Listen(family Family, _ int, deliver func(pkt []byte, source string)) error {
	if family == FamilyIPv6 {
		deliver(mdns.CannedResponseIPv6, mdns.CannedSourceIPv6)
		return nil
	}
	deliver(mdns.CannedResponseIPv4, mdns.CannedSourceIPv4)
	return nil
}
