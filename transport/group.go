package transport

import (
	"net"
	"regexp"

	"github.com/eluv-io/errors-go"
)

// groupArgRegex accepts the [iface:]group argument form: an optional
// interface name prefix and a dotted quad address.
var groupArgRegex = regexp.MustCompile(`^(?:([^:]+):)?(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})$`)

// ParseGroup splits an [iface:]addr argument into its interface name (empty
// when absent) and IPv4 address.
func ParseGroup(arg string) (iface string, group net.IP, err error) {
	e := errors.Template("parse group", errors.K.Invalid, "arg", arg)

	m := groupArgRegex.FindStringSubmatch(arg)
	if m == nil {
		return "", nil, e("reason", "expected [iface:]group")
	}
	ip := net.ParseIP(m[2])
	if ip == nil || ip.To4() == nil {
		return "", nil, e("reason", "not an IPv4 address")
	}
	return m[1], ip.To4(), nil
}
