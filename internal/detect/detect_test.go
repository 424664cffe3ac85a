package detect

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selimozcann/LinkSentry/internal/model"
)

func target(t *testing.T, raw string) *Target {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return NewTarget(raw, u)
}

func TestNewTarget(t *testing.T) {
	tg := target(t, "https://Login.Example.CO.UK./path")
	assert.Equal(t, "login.example.co.uk", tg.Host)
	assert.Equal(t, "login.example.co.uk", tg.ASCIIHost)
	assert.Equal(t, "example.co.uk", tg.Domain)
	assert.False(t, tg.IP)

	ip := target(t, "http://[::1]:8080/")
	assert.True(t, ip.IP)
	assert.Equal(t, "::1", ip.Domain)

	idn := target(t, "https://bücher.de/")
	assert.True(t, strings.HasPrefix(idn.ASCIIHost, "xn--"), idn.ASCIIHost)
	assert.Equal(t, "bücher.de", idn.UnicodeHost)
}

func TestPathAndQuery(t *testing.T) {
	tg := target(t, "https://example.com/A%20B?next=%2FLogin#Frag")
	assert.Equal(t, "/a b?next=/login#frag", tg.PathAndQuery())
}

func TestNonHTTPS(t *testing.T) {
	assert.Nil(t, NonHTTPS(target(t, "https://example.com")))

	f := NonHTTPS(target(t, "http://example.com"))
	require.NotNil(t, f)
	assert.Equal(t, RuleNonHTTPS, f.Rule)
	assert.Equal(t, model.SeverityLow, f.Severity)
	assert.Equal(t, "scheme http is not encrypted", f.Detail)

	assert.NotNil(t, NonHTTPS(target(t, "ftp://example.com")))
}

func TestIPLiteral(t *testing.T) {
	tests := []struct {
		raw    string
		detail string
	}{
		{"http://192.168.1.1/", "host is IP address 192.168.1.1 (internal range)"},
		{"http://8.8.8.8", "host is IP address 8.8.8.8"},
		{"http://0xc0a80101/", "host is IP address 192.168.1.1 (internal range)"},
		{"http://3232235777/", "host is IP address 192.168.1.1 (internal range)"},
		{"http://[2001:db8::1]/", "host is IP address 2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := IPLiteral(target(t, tt.raw))
			require.NotNil(t, f)
			assert.Equal(t, model.SeverityMedium, f.Severity)
			assert.Equal(t, tt.detail, f.Detail)
		})
	}
	assert.Nil(t, IPLiteral(target(t, "https://example.com")))
}

func TestHomograph(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		detail string
	}{
		{"mixed scripts", "https://аpple.com/login", "mixes Cyrillic and Latin scripts"},
		{"compatibility characters", "https://ｅxample.com/", "contains compatibility characters"},
		{"plain idn", "https://bücher.de/", "internationalized host \"bücher.de\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Homograph(target(t, tt.raw))
			require.NotNil(t, f)
			assert.Equal(t, RuleHomograph, f.Rule)
			assert.Equal(t, model.SeverityHigh, f.Severity)
			assert.Contains(t, f.Detail, tt.detail)
		})
	}

	assert.Nil(t, Homograph(target(t, "https://example.com")))
	assert.Nil(t, Homograph(target(t, "http://10.0.0.1/")))
}

func TestShortener(t *testing.T) {
	lists := DefaultLists()
	f := Shortener(target(t, "https://bit.ly/x"), lists.Shorteners)
	require.NotNil(t, f)
	assert.Equal(t, model.SeverityLow, f.Severity)
	assert.Contains(t, f.Detail, "bit.ly")

	assert.NotNil(t, Shortener(target(t, "https://www.tinyurl.com/abc"), lists.Shorteners))
	assert.Nil(t, Shortener(target(t, "https://notbit.ly/x"), lists.Shorteners))
	assert.Nil(t, Shortener(target(t, "https://example.com"), nil))
}

func TestSubdomainDepth(t *testing.T) {
	assert.Nil(t, SubdomainDepth(target(t, "https://a.b.c.example.com"), 3))
	assert.Nil(t, SubdomainDepth(target(t, "http://10.0.0.1"), 0))

	f := SubdomainDepth(target(t, "https://a.b.c.d.example.com"), 3)
	require.NotNil(t, f)
	assert.Equal(t, model.SeverityMedium, f.Severity)
	assert.Equal(t, "4 subdomain levels above example.com (limit 3)", f.Detail)
}

func TestPhishingKeywords(t *testing.T) {
	lists := DefaultLists()
	tests := []struct {
		name     string
		raw      string
		severity model.Severity
		detail   string
	}{
		{
			name:     "several keywords",
			raw:      "http://192.168.1.1/login-secure-verify",
			severity: model.SeverityMedium,
			detail:   "credential keywords login, secure, verify",
		},
		{
			name:     "escaped query",
			raw:      "https://example.com/?next=%2Flogin%2Fverify",
			severity: model.SeverityMedium,
			detail:   "credential keywords login, verify",
		},
		{
			name:     "brand in host",
			raw:      "https://paypal-login.example.com/",
			severity: model.SeverityMedium,
			detail:   `brand "paypal" on unrelated domain example.com`,
		},
		{
			name:     "brand and keyword",
			raw:      "https://example.com/paypal/login",
			severity: model.SeverityHigh,
			detail:   `brand "paypal" on unrelated domain example.com with keywords login`,
		},
		{
			name:     "brand only in query",
			raw:      "https://example.com/r?to=paypal&step=login-verify",
			severity: model.SeverityMedium,
			detail:   "credential keywords login, verify",
		},
		{name: "search query naming a brand", raw: "https://www.google.com/search?q=amazon+login"},
		{name: "owned brand", raw: "https://www.paypal.com/signin"},
		{name: "single keyword", raw: "https://example.com/account"},
		{name: "clean", raw: "https://example.com/docs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := PhishingKeywords(target(t, tt.raw), lists.Keywords, lists.Brands)
			if tt.severity == "" {
				assert.Nil(t, f)
				return
			}
			require.NotNil(t, f)
			assert.Equal(t, RulePhishingKeywords, f.Rule)
			assert.Equal(t, tt.severity, f.Severity)
			assert.Equal(t, tt.detail, f.Detail)
		})
	}
}

func TestURLLength(t *testing.T) {
	short := "https://example.com/" + strings.Repeat("a", 80)
	long := "https://example.com/" + strings.Repeat("a", 90)

	assert.Nil(t, URLLength(target(t, short), 100))
	f := URLLength(target(t, long), 100)
	require.NotNil(t, f)
	assert.Equal(t, model.SeverityLow, f.Severity)
	assert.Equal(t, "URL is 110 characters (limit 100)", f.Detail)

	// multi-byte characters count once
	wide := "https://пример.рф/" + strings.Repeat("ж", 80)
	assert.Nil(t, URLLength(target(t, wide), 100))
}

func TestDenylist(t *testing.T) {
	lists := DefaultLists()
	f := Denylist(target(t, "https://sub.phishing.example/x"), lists.Denylist)
	require.NotNil(t, f)
	assert.Equal(t, model.SeverityHigh, f.Severity)
	assert.Equal(t, "host matches denylist entry phishing.example", f.Detail)

	assert.Nil(t, Denylist(target(t, "https://notphishing.example/"), lists.Denylist))
}
