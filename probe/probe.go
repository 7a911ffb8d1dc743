// Package probe answers a single question: is the local server
// accepting TCP connections yet?
package probe

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Probe reports whether something is accepting TCP connections on
// host:port. "Not ready yet" is an expected, frequent outcome, so every
// connection error (refused, timeout, unreachable) simply yields false.
// The connection is closed immediately; the check has no other side
// effects.
func Probe(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// URL returns the browser-facing address of the server being probed.
func URL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}
