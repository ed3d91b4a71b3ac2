package api

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterfaceProbe(t *testing.T) {
	tests := []struct {
		name   string
		ifaces []net.Interface
		err    error
		want   bool
	}{
		{
			name:   "ethernet up",
			ifaces: []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}, {Name: "eth0", Flags: net.FlagUp}},
			want:   true,
		},
		{
			name:   "only loopback",
			ifaces: []net.Interface{{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}},
			want:   false,
		},
		{
			name:   "interface down",
			ifaces: []net.Interface{{Name: "wlan0", Flags: net.FlagBroadcast}},
			want:   false,
		},
		{
			name: "lookup error",
			err:  errors.New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &InterfaceProbe{interfaces: func() ([]net.Interface, error) {
				return tt.ifaces, tt.err
			}}
			assert.Equal(t, tt.want, p.Online())
		})
	}
}
