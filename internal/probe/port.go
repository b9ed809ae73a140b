// Package probe provides the best-effort external checks the engine
// relies on: TCP port occupancy, forward port allocation, and HTTP
// server-signature probing. Probes never propagate failures; a probe
// that cannot run reports a negative result.
package probe

import (
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"
)

// PortProber reports whether a TCP port is currently bound on the local
// host. Implementations must be best-effort: "in use" only when actively
// proven, "not in use" whenever the mechanism itself is unavailable.
type PortProber interface {
	InUse(port string) bool
}

// PortProbe checks port occupancy by attempting a loopback bind.
// A successful bind proves the port free; a bind refused with
// address-in-use proves it bound. Any other failure counts as free.
type PortProbe struct{}

// NewPortProbe creates a PortProbe.
func NewPortProbe() *PortProbe {
	return &PortProbe{}
}

// InUse implements PortProber.
func (p *PortProbe) InUse(port string) bool {
	if _, err := strconv.Atoi(port); err != nil {
		return false
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", port))
	if err != nil {
		return errors.Is(err, syscall.EADDRINUSE)
	}
	ln.Close()
	return false
}

// portScanSpan is how far past the requested port the allocator looks.
const portScanSpan = 100

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// Allocator finds free ports near a requested one.
type Allocator struct {
	prober PortProber
	span   int
}

// NewAllocator creates an Allocator backed by the given prober.
func NewAllocator(prober PortProber) *Allocator {
	return &Allocator{prober: prober, span: portScanSpan}
}

// FindAvailablePort scans start+1 through start+span, monotonically
// increasing, and returns the first port the prober reports free.
// The scan never randomizes and never exceeds MaxPort. Returns
// ("", false) when the input is not numeric or the scan is exhausted.
func (a *Allocator) FindAvailablePort(start string) (string, bool) {
	n, err := strconv.Atoi(start)
	if err != nil {
		return "", false
	}

	for candidate := n + 1; candidate <= n+a.span; candidate++ {
		if candidate > MaxPort {
			return "", false
		}
		port := strconv.Itoa(candidate)
		if !a.prober.InUse(port) {
			return port, true
		}
	}
	return "", false
}

// ValidPort reports whether s is a syntactically valid TCP port (1-65535).
func ValidPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= MaxPort
}

// probeTimeout bounds every network probe so a wedged stack cannot stall
// a reconciliation pass.
const probeTimeout = 900 * time.Millisecond
