package probe

import (
	"net"
	"strconv"
	"testing"
)

func TestPortProbe_InUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to open test listener: %v", err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)

	probe := NewPortProbe()

	if !probe.InUse(port) {
		t.Errorf("InUse(%s) = false while listener is open", port)
	}

	ln.Close()

	if probe.InUse(port) {
		t.Errorf("InUse(%s) = true after listener closed", port)
	}
}

func TestPortProbe_InUse_NonNumeric(t *testing.T) {
	probe := NewPortProbe()
	if probe.InUse("not-a-port") {
		t.Error("InUse(non-numeric) = true, want false (fail closed)")
	}
}

// fakeProber marks a fixed set of ports as bound.
type fakeProber struct {
	bound map[string]bool
}

func (f *fakeProber) InUse(port string) bool { return f.bound[port] }

func TestAllocator_FindAvailablePort(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		bound    []string
		want     string
		wantDone bool
	}{
		{
			name:     "skips occupied neighbors",
			start:    "8000",
			bound:    []string{"8000", "8001"},
			want:     "8002",
			wantDone: true,
		},
		{
			name:     "first candidate free",
			start:    "3000",
			bound:    nil,
			want:     "3001",
			wantDone: true,
		},
		{
			name:     "stops at port space ceiling",
			start:    "65535",
			bound:    nil,
			want:     "",
			wantDone: false,
		},
		{
			name:     "non-numeric start",
			start:    "auto",
			bound:    nil,
			want:     "",
			wantDone: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bound := make(map[string]bool)
			for _, p := range tt.bound {
				bound[p] = true
			}
			alloc := NewAllocator(&fakeProber{bound: bound})

			got, ok := alloc.FindAvailablePort(tt.start)
			if ok != tt.wantDone || got != tt.want {
				t.Errorf("FindAvailablePort(%s) = (%q, %v), want (%q, %v)",
					tt.start, got, ok, tt.want, tt.wantDone)
			}
		})
	}
}

func TestAllocator_ScanExhausted(t *testing.T) {
	// Every port in the scan range is bound.
	alloc := NewAllocator(probeAll(true))
	if got, ok := alloc.FindAvailablePort("8000"); ok {
		t.Errorf("FindAvailablePort = (%q, true), want exhausted scan", got)
	}
}

type probeAll bool

func (p probeAll) InUse(string) bool { return bool(p) }

func TestValidPort(t *testing.T) {
	valid := []string{"1", "80", "8000", "65535"}
	invalid := []string{"", "0", "65536", "-1", "auto", "80a"}

	for _, p := range valid {
		if !ValidPort(p) {
			t.Errorf("ValidPort(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if ValidPort(p) {
			t.Errorf("ValidPort(%q) = true, want false", p)
		}
	}
}
