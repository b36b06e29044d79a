// Package multicast contains multicast connections.
package multicast

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
)

// Conn is a multicast connection.
type Conn interface {
	net.PacketConn
	SetReadBuffer(int) error
}

type conn struct {
	addr   *net.UDPAddr
	pc     *net.UDPConn
	pcIP   *ipv4.PacketConn
	joined []*net.Interface
}

// NewConn allocates a receive-oriented multicast connection.
// The socket is bound to the wildcard address on the port of addr
// and joined to the group of addr. When intf is nil, the group is
// joined on every multicast-capable interface.
func NewConn(
	intf *net.Interface,
	address string,
	listenPacket func(network, address string) (net.PacketConn, error),
) (Conn, error) {
	addr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, err
	}

	tmp, err := listenPacket("udp4", "0.0.0.0:"+strconv.FormatInt(int64(addr.Port), 10))
	if err != nil {
		return nil, err
	}
	pc := tmp.(*net.UDPConn)

	pcIP := ipv4.NewPacketConn(pc)

	var joined []*net.Interface

	if intf != nil {
		err = pcIP.JoinGroup(intf, &net.UDPAddr{IP: addr.IP})
		if err != nil {
			pc.Close() //nolint:errcheck
			return nil, err
		}
		joined = append(joined, intf)
	} else {
		var intfs []net.Interface
		intfs, err = net.Interfaces()
		if err != nil {
			pc.Close() //nolint:errcheck
			return nil, err
		}

		for _, ci := range intfs {
			if (ci.Flags&net.FlagMulticast) == 0 || (ci.Flags&net.FlagUp) == 0 {
				continue
			}
			cintf := ci

			err = pcIP.JoinGroup(&cintf, &net.UDPAddr{IP: addr.IP})
			if err != nil {
				continue
			}
			joined = append(joined, &cintf)
		}

		if len(joined) == 0 {
			pc.Close() //nolint:errcheck
			return nil, fmt.Errorf("unable to join group %v on any interface", addr.IP)
		}
	}

	return &conn{
		addr:   addr,
		pc:     pc,
		pcIP:   pcIP,
		joined: joined,
	}, nil
}

// Close implements Conn.
func (c *conn) Close() error {
	for _, intf := range c.joined {
		c.pcIP.LeaveGroup(intf, &net.UDPAddr{IP: c.addr.IP}) //nolint:errcheck
	}
	return c.pc.Close()
}

// SetReadBuffer implements Conn.
func (c *conn) SetReadBuffer(bytes int) error {
	return c.pc.SetReadBuffer(bytes)
}

// LocalAddr implements Conn.
func (c *conn) LocalAddr() net.Addr {
	return c.pc.LocalAddr()
}

// SetDeadline implements Conn.
func (c *conn) SetDeadline(t time.Time) error {
	return c.pc.SetDeadline(t)
}

// SetReadDeadline implements Conn.
func (c *conn) SetReadDeadline(t time.Time) error {
	return c.pc.SetReadDeadline(t)
}

// SetWriteDeadline implements Conn.
func (c *conn) SetWriteDeadline(t time.Time) error {
	return c.pc.SetWriteDeadline(t)
}

// WriteTo implements Conn.
func (c *conn) WriteTo(b []byte, addr net.Addr) (int, error) {
	return c.pc.WriteTo(b, addr)
}

// ReadFrom implements Conn.
func (c *conn) ReadFrom(b []byte) (int, net.Addr, error) {
	return c.pc.ReadFrom(b)
}
