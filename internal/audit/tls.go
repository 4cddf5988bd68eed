package audit

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// TLSVerifier reports whether a host presents a certificate that verifies
type TLSVerifier interface {
	Verify(ctx context.Context, host string) bool
}

// TLSDialer verifies certificates by completing a handshake on port 443
type TLSDialer struct {
	Timeout time.Duration
	Config  *tls.Config
}

// Verify dials host:443 and completes a handshake
func (d TLSDialer) Verify(ctx context.Context, host string) bool {
	if host == "" {
		return false
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    d.Config,
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "443"))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
