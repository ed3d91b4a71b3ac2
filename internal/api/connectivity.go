package api

import (
	"net"
)

// InterfaceProbe reports whether the host has an active network connection,
// i.e. at least one non-loopback interface that is up.
type InterfaceProbe struct {
	interfaces func() ([]net.Interface, error)
}

func NewInterfaceProbe() *InterfaceProbe {
	return &InterfaceProbe{interfaces: net.Interfaces}
}

func (p *InterfaceProbe) Online() bool {
	ifaces, err := p.interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}
