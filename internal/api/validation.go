package api

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

const maxURLLength = 2048

// validHostnameRegex is a regular expression to validate hostnames
var validHostnameRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16",
	"169.254.0.0/16", "fc00::/7", "fe80::/10",
)

// validateURL checks that rawURL is a public http(s) address and returns it normalized.
// With allowPrivate set, loopback and private network hosts are accepted.
func validateURL(rawURL string, allowPrivate bool) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("URL is required")
	}

	if len(rawURL) > maxURLLength {
		return "", fmt.Errorf("url too long (max %d characters)", maxURLLength)
	}

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url format: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme '%s': only http and https are allowed", u.Scheme)
	}

	if u.Host == "" {
		return "", errors.New("hostname is required")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return "", errors.New("invalid hostname")
	}

	if err := validateHostname(hostname, allowPrivate); err != nil {
		return "", fmt.Errorf("invalid hostname: %w", err)
	}

	if strings.Contains(u.Path, "..") {
		return "", errors.New("path traversal patterns are not allowed")
	}

	return u.String(), nil
}

func validateHostname(hostname string, allowPrivate bool) error {
	if !allowPrivate {
		if isLocalhost(hostname) {
			return errors.New("localhost and loopback addresses are not allowed")
		}
		if isPrivateIP(hostname) {
			return errors.New("private IP addresses are not allowed")
		}
	}

	if !validHostnameRegex.MatchString(hostname) && net.ParseIP(hostname) == nil {
		return errors.New("invalid hostname or IP address format")
	}

	if len(hostname) > 253 {
		return errors.New("hostname too long (max 253 characters)")
	}

	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	switch hostname {
	case "localhost", "0.0.0.0":
		return true
	}
	if ip := net.ParseIP(hostname); ip != nil && ip.IsLoopback() {
		return true
	}
	return strings.HasSuffix(hostname, ".localhost")
}

func isPrivateIP(hostname string) bool {
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets = append(nets, network)
	}
	return nets
}
