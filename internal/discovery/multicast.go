package discovery

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"go2tv.app/castportal/internal/mdns"
)

var (
	groupIPv4 = &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: 5353}
	groupIPv6 = &net.UDPAddr{IP: net.ParseIP("ff02::fb"), Port: 5353}
)

// MulticastSource drives a real multicast DNS exchange: a UDP socket for the
// family, the query multicast to the mDNS group with link-local scope, and a
// deadline-bounded read loop over whatever comes back.
type MulticastSource struct{}

func (MulticastSource) Listen(family Family, waitMS int, deliver func(pkt []byte, source string)) error {
	query, err := mdns.EncodeQuery()
	if err != nil {
		return err
	}

	network, group := "udp4", groupIPv4
	if family == FamilyIPv6 {
		network, group = "udp6", groupIPv6
	}

	conn, err := net.ListenPacket(network, ":0")
	if err != nil {
		return fmt.Errorf("discovery: open %s socket: %w", family, err)
	}
	defer conn.Close()

	// Scope the query to the link, keep a loopback copy so a receiver on
	// this host can answer too, and join the mDNS group on the default
	// interface. A failure in any of these steps skips the family.
	if family == FamilyIPv4 {
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(1); err != nil {
			return fmt.Errorf("discovery: multicast ttl: %w", err)
		}
		if err := pc.SetMulticastLoopback(true); err != nil {
			return fmt.Errorf("discovery: multicast loopback: %w", err)
		}
		if err := pc.JoinGroup(nil, group); err != nil {
			return fmt.Errorf("discovery: join group: %w", err)
		}
	} else {
		pc := ipv6.NewPacketConn(conn)
		if err := pc.SetMulticastHopLimit(1); err != nil {
			return fmt.Errorf("discovery: multicast hop limit: %w", err)
		}
		if err := pc.SetMulticastLoopback(true); err != nil {
			return fmt.Errorf("discovery: multicast loopback: %w", err)
		}
		if err := pc.JoinGroup(nil, group); err != nil {
			return fmt.Errorf("discovery: join group: %w", err)
		}
	}

	if _, err := conn.WriteTo(query, group); err != nil {
		return fmt.Errorf("discovery: send query: %w", err)
	}

	deadline := time.Now().Add(time.Duration(waitMS) * time.Millisecond)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("discovery: arm read deadline: %w", err)
	}

	pkt := make([]byte, mdns.MessageLimit+1)
	for {
		n, addr, err := conn.ReadFrom(pkt)
		if err != nil {
			if isDeadline(err) {
				return nil
			}
			return fmt.Errorf("discovery: read: %w", err)
		}
		datagram := make([]byte, n)
		copy(datagram, pkt[:n])
		deliver(datagram, sourceHost(addr))
	}
}

// sourceHost reduces a datagram sender address to its bare host, dropping the
// port and any IPv6 zone suffix.
func sourceHost(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	if i := strings.IndexByte(host, '%'); i >= 0 {
		host = host[:i]
	}
	return host
}

func isDeadline(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
