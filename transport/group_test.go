package transport_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluv-io/mnc/transport"
)

func TestParseGroup(t *testing.T) {
	tests := []struct {
		arg   string
		iface string
		group string
	}{
		{"239.1.2.3", "", "239.1.2.3"},
		{"eth0:239.1.2.3", "eth0", "239.1.2.3"},
		{"en0:224.0.0.251", "en0", "224.0.0.251"},
		{"127.0.0.1", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		iface, group, err := transport.ParseGroup(tt.arg)
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.iface, iface, tt.arg)
		assert.Equal(t, net.ParseIP(tt.group).To4(), group, tt.arg)
	}
}

func TestParseGroupRejects(t *testing.T) {
	bad := []string{
		"",
		"not-an-address",
		"eth0:",
		"1.2.3.4.5",
		"300.1.2.3",
		"239.1.2.3:1234",
		"::1",
	}
	for _, arg := range bad {
		_, _, err := transport.ParseGroup(arg)
		assert.Error(t, err, arg)
	}
}
