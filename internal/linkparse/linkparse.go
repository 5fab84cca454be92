// Package linkparse extracts campaign identifiers from voucher links.
package linkparse

import (
	"net/url"
	"strings"
)

// Expected shape of a voucher link:
// https://coffree.capitalone.com/sms/?cid=xxx&mc=yyy
const (
	voucherHost = "coffree.capitalone.com"
	voucherPath = "/sms/"
)

// Link holds the identifiers extracted from a voucher link
type Link struct {
	CampaignID       string
	MarketingChannel string
}

// Parse extracts the campaign ID and marketing channel from a voucher
// link. Returns (nil, false) when the URL does not look like a voucher
// link, either parameter is missing, or the marketing channel is empty
// after sanitization. Parse has no side effects.
func Parse(raw string) (*Link, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}

	if !strings.Contains(u.Hostname(), voucherHost) || !strings.Contains(u.Path, voucherPath) {
		return nil, false
	}

	cid := u.Query().Get("cid")
	mc := u.Query().Get("mc")
	if cid == "" || mc == "" {
		return nil, false
	}

	// Links shared through Reddit and messaging apps often pick up
	// trailing punctuation or encoding artifacts on the mc parameter.
	mc = SanitizeChannel(mc)
	if mc == "" {
		return nil, false
	}

	return &Link{CampaignID: cid, MarketingChannel: mc}, true
}

// SanitizeChannel strips every character that is not an ASCII letter.
// Sanitization is idempotent.
func SanitizeChannel(s string) string {
	letters := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			letters = append(letters, c)
		}
	}
	return string(letters)
}

// IsMalformedChannel reports whether a stored marketing channel carries
// characters that sanitization would remove.
func IsMalformedChannel(s string) bool {
	return SanitizeChannel(s) != s
}
