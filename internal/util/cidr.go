package util

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
)

var privateCIDRs []*net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, c := range cidrs {
		_, n, _ := net.ParseCIDR(c)
		privateCIDRs = append(privateCIDRs, n)
	}
}

// ParseIPLiteral returns the address a host spells out, if any. Besides the
// usual dotted and IPv6 forms it accepts single-integer IPv4 encodings such
// as "3232235777" and "0xc0a80101", which browsers resolve the same way.
func ParseIPLiteral(host string) (net.IP, bool) {
	host = strings.Trim(strings.ToLower(host), "[]")
	if host == "" {
		return nil, false
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, true
	}
	var (
		n   uint64
		err error
	)
	switch {
	case strings.HasPrefix(host, "0x"):
		n, err = strconv.ParseUint(host[2:], 16, 32)
	case isDigits(host):
		n, err = strconv.ParseUint(host, 10, 32)
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, uint32(n))
	return ip, true
}

// IsInternalIP returns true if ip is loopback, link-local or in a private range.
func IsInternalIP(ip net.IP) bool {
	for _, n := range privateCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
