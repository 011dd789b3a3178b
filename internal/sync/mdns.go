package sync

import (
	"fmt"
	"net"
	"os"

	"github.com/hashicorp/mdns"
)

const serviceType = "_khatapad._tcp"

// Advertise announces a sync endpoint on the local network so companion
// devices can find it without typing addresses. Shut the returned server
// down on exit.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		host, serviceType, "", "", port, nil, []string{"KhataPad"},
	)
	if err != nil {
		return nil, fmt.Errorf("mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("mdns server: %w", err)
	}
	return server, nil
}

// Browse runs one discovery pass and calls found for every sync endpoint
// seen on the local network.
func Browse(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()
	return mdns.Lookup(serviceType, entries)
}

// OutgoingIP returns the local address peers should dial, preferring the
// interface that routes outward and falling back to the first non-loopback
// IPv4 on offline networks.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.IP.String()
		}
	}

	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String()
			}
		}
	}
	return "127.0.0.1"
}
