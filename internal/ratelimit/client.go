package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

var clientHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_X_FORWARDED_FOR",
	"HTTP_X_FORWARDED",
	"HTTP_X_CLUSTER_CLIENT_IP",
	"HTTP_CLIENT_IP",
	"HTTP_FORWARDED_FOR",
	"HTTP_FORWARDED",
	"HTTP_VIA",
	"REMOTE_ADDR",
}

// ClientID returns the first usable forwarding header value (first entry of a
// comma list, "unknown" skipped) or the connection host.
func ClientID(r *http.Request) string {
	for _, h := range clientHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}
		if v != "" && !strings.EqualFold(v, "unknown") {
			return v
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func Key(class Class, client string) string {
	return class.Name + ":" + client
}
