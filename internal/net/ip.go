package net

import (
	"net"
)

// GetOutgoingIP finds the address other machines on the LAN should use to
// reach this studio.
func GetOutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route out; pick an interface instead
		return firstIPv4().String()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
