// Package diagnostics inspects the host for the network capabilities a
// discovery pass relies on.
package diagnostics

import (
	"net"
	"strings"
)

var (
	listInterfaces = net.Interfaces
	interfaceAddrs = func(ifi *net.Interface) ([]net.Addr, error) { return ifi.Addrs() }
)

type FamilyStatus struct {
	Usable     bool     `json:"usable"`
	Interfaces []string `json:"interfaces,omitempty"`
}

type NetworkReport struct {
	IPv4           FamilyStatus `json:"ipv4"`
	IPv6           FamilyStatus `json:"ipv6"`
	MulticastReady bool         `json:"multicast_ready"`
}

// DetectNetwork reports, per address family, the up multicast-capable
// interfaces that carry an address of that family. Loopback interfaces do not
// count towards readiness.
func DetectNetwork() NetworkReport {
	report := NetworkReport{}

	interfaces, err := listInterfaces()
	if err != nil {
		return report
	}

	for i := range interfaces {
		ifi := interfaces[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := interfaceAddrs(&ifi)
		if err != nil {
			continue
		}
		hasIPv4, hasIPv6 := classifyAddrs(addrs)
		if hasIPv4 {
			report.IPv4.Usable = true
			report.IPv4.Interfaces = append(report.IPv4.Interfaces, ifi.Name)
		}
		if hasIPv6 {
			report.IPv6.Usable = true
			report.IPv6.Interfaces = append(report.IPv6.Interfaces, ifi.Name)
		}
	}

	report.MulticastReady = report.IPv4.Usable || report.IPv6.Usable
	return report
}

func classifyAddrs(addrs []net.Addr) (hasIPv4, hasIPv6 bool) {
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ipNet.IP.To4() != nil {
			hasIPv4 = true
			continue
		}
		if strings.Contains(ipNet.IP.String(), ":") {
			hasIPv6 = true
		}
	}
	return hasIPv4, hasIPv6
}
