package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	applog "fintrack/internal/log"
)

// DetectionMetrics tracks security detection events.
type DetectionMetrics struct {
	SuspiciousRequests int64
}

// Finding describes why a request looked like probing. Blocking findings are
// answered with 405 instead of being passed on.
type Finding struct {
	Rule   string
	Detail string
	Block  bool
}

func (f Finding) String() string {
	return f.Rule + " " + f.Detail
}

var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
	}
	injectionFragments = []string{"<script", "javascript:", "eval(", "union select"}
	scannerAgents      = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
	blockedMethods     = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

const (
	maxURLLength      = 2048
	maxForwardedHops  = 6
	defaultProxyCIDRs = "127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,::1/128"
)

// Detector flags requests that look like probing and resolves client IPs
// behind trusted proxies.
type Detector struct {
	suspicious atomic.Int64
	logger     *applog.Logger

	mu      sync.RWMutex
	trusted []netip.Prefix
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector(logger *applog.Logger) *Detector {
	if logger == nil {
		logger = applog.Discard()
	}
	d := &Detector{logger: logger.WithComponent(applog.ComponentSecurity)}
	for _, cidr := range strings.Split(defaultProxyCIDRs, ",") {
		d.trusted = append(d.trusted, netip.MustParsePrefix(cidr))
	}
	return d
}

// Inspect returns the first finding for r, or false when r looks ordinary.
func (d *Detector) Inspect(r *http.Request) (Finding, bool) {
	if slices.Contains(blockedMethods, r.Method) {
		return Finding{Rule: "method", Detail: r.Method, Block: true}, true
	}

	path := strings.ToLower(r.URL.Path)
	query := r.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}
	query = strings.ToLower(query)

	for _, frag := range probeFragments {
		if strings.Contains(path, frag) || strings.Contains(query, frag) {
			return Finding{Rule: "probe", Detail: frag}, true
		}
	}
	for _, frag := range injectionFragments {
		if strings.Contains(path, frag) || strings.Contains(query, frag) {
			return Finding{Rule: "injection", Detail: frag}, true
		}
	}

	ua := strings.ToLower(r.UserAgent())
	for _, agent := range scannerAgents {
		if strings.Contains(ua, agent) {
			return Finding{Rule: "scanner", Detail: agent}, true
		}
	}

	if n := len(r.URL.String()); n > maxURLLength {
		return Finding{Rule: "url", Detail: fmt.Sprintf("length %d", n)}, true
	}
	if hops := strings.Count(r.Header.Get("X-Forwarded-For"), ",") + 1; hops > maxForwardedHops {
		return Finding{Rule: "forwarded", Detail: fmt.Sprintf("%d hops", hops)}, true
	}
	return Finding{}, false
}

// Middleware logs suspicious requests and rejects blocking findings.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, found := d.Inspect(r)
		if !found {
			next.ServeHTTP(w, r)
			return
		}

		d.suspicious.Add(1)
		d.logger.WarnContext(r.Context(), "Suspicious request",
			"rule", f.Rule,
			"detail", f.Detail,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, d.ExtractClientIP(r))

		if f.Block {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP returns the peer address, or the forwarded client address
// when the peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !d.trustedPeer(peer.Unmap()) {
		return host
	}

	// The first X-Forwarded-For entry is the original client.
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); first != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	return host
}

func (d *Detector) trustedPeer(ip netip.Addr) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.trusted {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{SuspiciousRequests: d.suspicious.Load()}
}

// AddTrustedProxy trusts forwarded headers from peers in cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.mu.Lock()
	d.trusted = append(d.trusted, p.Masked())
	d.mu.Unlock()
	return nil
}
