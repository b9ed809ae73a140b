package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
)

// serverSignatures are substrings looked for in the Server response
// header to decide that the thing answering on a port is one of ours.
// FrankenPHP is built on Caddy, so either token counts.
var serverSignatures = []string{"frankenphp", "caddy"}

// HTTPProber checks whether a dev server answers at a candidate address.
type HTTPProber interface {
	Serving(ctx context.Context, proto, host, port string) bool
}

// HTTPProbe performs best-effort HEAD requests against candidate
// (protocol, host, port) tuples and matches the response against the
// server signature. All transport failures are swallowed: probing must
// never break a reconciliation pass.
type HTTPProbe struct {
	client *http.Client
}

// NewHTTPProbe creates an HTTPProbe. Certificate verification is
// disabled: local HTTPS mode serves self-signed certificates, and the
// probe only cares about the Server header, not trust.
func NewHTTPProbe() *HTTPProbe {
	return &HTTPProbe{
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Serving implements HTTPProber. It returns true only when a response
// arrives and carries the server signature.
func (p *HTTPProbe) Serving(ctx context.Context, proto, host, port string) bool {
	url := fmt.Sprintf("%s://%s:%s/", proto, host, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	server := strings.ToLower(resp.Header.Get("Server"))
	for _, sig := range serverSignatures {
		if strings.Contains(server, sig) {
			return true
		}
	}
	return false
}

// ProtocolsFor returns the protocols worth probing for a given HTTPS
// mode: "off" serves plain HTTP only; "local" and "on" prefer HTTPS but
// may redirect plain HTTP too; anything unrecognized tries both, HTTP
// first.
func ProtocolsFor(httpsMode string) []string {
	switch httpsMode {
	case "off":
		return []string{"http"}
	case "local", "on":
		return []string{"https", "http"}
	default:
		return []string{"http", "https"}
	}
}
