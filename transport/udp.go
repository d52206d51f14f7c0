package transport

import (
	"context"
	"net"
	"syscall"
	"time"

	"github.com/eluv-io/errors-go"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// UDP_RCVBUF_SIZE is the kernel receive buffer requested for the receiving
// socket. The kernel caps it at net.core.rmem_max, so the request is best
// effort.
const UDP_RCVBUF_SIZE = 256 * 1024 * 1024

// pollInterval bounds how long Receive blocks so the caller can observe
// shutdown between datagrams.
const pollInterval = 100 * time.Millisecond

// UDPSource receives datagrams from a multicast group joined on a specific
// interface, or from a plain unicast bind when the address is not multicast.
type UDPSource struct {
	conn *net.UDPConn
}

var _ Source = (*UDPSource)(nil)

// OpenGroup binds group:port with address reuse and, for multicast groups,
// joins the group on the named interface. An empty iface selects the
// interface of the default route, the way the kernel would route a send to
// the group.
func OpenGroup(iface string, group net.IP, port int) (*UDPSource, error) {
	e := errors.Template("open group", errors.K.IO, "group", group.String(), "port", port)

	laddr := &net.UDPAddr{IP: group, Port: port}
	lc := net.ListenConfig{Control: reuseAddrControl}

	pconn, err := lc.ListenPacket(context.Background(), "udp4", laddr.String())
	if err != nil {
		return nil, e(err)
	}
	conn := pconn.(*net.UDPConn)

	if err := conn.SetReadBuffer(UDP_RCVBUF_SIZE); err != nil {
		log.Warn("failed to grow receive buffer", "size", UDP_RCVBUF_SIZE, "err", err)
	}

	if group.IsMulticast() {
		ifi, err := multicastInterface(iface, group)
		if err != nil {
			_ = conn.Close()
			return nil, e(err, "iface", iface)
		}
		pc := ipv4.NewPacketConn(conn)
		if err := pc.JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
			_ = conn.Close()
			return nil, e(err, "iface", ifi.Name)
		}
		log.Info("reading from multicast group", "group", group.String(), "port", port, "iface", ifi.Name)
	} else {
		log.Info("reading from address", "addr", laddr.String())
	}

	return &UDPSource{conn: conn}, nil
}

func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if serr != nil {
			return
		}
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return serr
}

// multicastInterface resolves the interface to join on: the named one, or the
// one the kernel routes multicast sends through, discovered with a throwaway
// connected socket.
func multicastInterface(iface string, group net.IP) (*net.Interface, error) {
	if iface != "" {
		return net.InterfaceByName(iface)
	}

	tmp, err := net.Dial("udp4", net.JoinHostPort(group.String(), "1"))
	if err != nil {
		return nil, err
	}
	local := tmp.LocalAddr().(*net.UDPAddr).IP
	_ = tmp.Close()

	ifis, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifis {
		addrs, err := ifis[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.Equal(local) {
				return &ifis[i], nil
			}
		}
	}
	return nil, errors.E("resolve interface", errors.K.NotExist, "addr", local.String())
}

// LocalAddr reports the bound address, after the kernel resolved a zero
// port.
func (s *UDPSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Receive fills p with the next datagram. Timeout errors are deadline polls,
// not failures.
func (s *UDPSource) Receive(p []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
		return 0, err
	}
	n, _, err := s.conn.ReadFromUDP(p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *UDPSource) Close() error {
	return s.conn.Close()
}

// UDPSink sends datagrams to a group over a connected socket.
type UDPSink struct {
	conn *net.UDPConn
}

var _ Sink = (*UDPSink)(nil)

// DialGroup connects a send socket to group:port. For multicast groups the
// TTL is applied and, when iface is non-empty, the outgoing interface pinned.
func DialGroup(iface string, group net.IP, port, ttl int) (*UDPSink, error) {
	e := errors.Template("dial group", errors.K.IO, "group", group.String(), "port", port)

	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: group, Port: port})
	if err != nil {
		return nil, e(err)
	}

	if group.IsMulticast() {
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(ttl); err != nil {
			_ = conn.Close()
			return nil, e(err, "ttl", ttl)
		}
		if iface != "" {
			ifi, err := net.InterfaceByName(iface)
			if err != nil {
				_ = conn.Close()
				return nil, e(err, "iface", iface)
			}
			if err := pc.SetMulticastInterface(ifi); err != nil {
				_ = conn.Close()
				return nil, e(err, "iface", iface)
			}
		}
	}

	log.Info("writing to group", "group", group.String(), "port", port, "ttl", ttl)
	return &UDPSink{conn: conn}, nil
}

func (k *UDPSink) Send(p []byte) error {
	_, err := k.conn.Write(p)
	return err
}

func (k *UDPSink) Close() error {
	return k.conn.Close()
}
