package sms

import (
	"regexp"
	"strings"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/shopspring/decimal"
)

// UnknownRecipient stands in when the amount and direction were found but the
// recipient pattern did not match.
const UnknownRecipient = "Unknown"

var (
	sentKeywords     = regexp.MustCompile(`(?i)\b(?:debited|sent|paid)\b`)
	receivedKeywords = regexp.MustCompile(`(?i)\b(?:credited|received)\b`)
)

// ParseResult is what an extractor pulls out of one message body.
type ParseResult struct {
	Amount      decimal.Decimal
	Recipient   string
	Direction   storage.Direction
	Vendor      string
	ReferenceID string // empty when the vendor issued none
}

// Extractor recognises and parses one family of payment messages.
type Extractor interface {
	Name() string
	Matches(sender, body string) bool
	Extract(body string) (ParseResult, bool)
}

// VendorPattern is a data-driven Extractor for one payment app. The sender field is
// sniffed for any of SenderTokens; the regexes each capture their value in group 1.
type VendorPattern struct {
	Label             string
	SenderTokens      []string
	Amount            *regexp.Regexp
	SentRecipient     *regexp.Regexp
	ReceivedRecipient *regexp.Regexp
	Reference         *regexp.Regexp
}

func (p *VendorPattern) Name() string { return p.Label }

func (p *VendorPattern) Matches(sender, body string) bool {
	s := strings.ToLower(sender)
	for _, tok := range p.SenderTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func (p *VendorPattern) Extract(body string) (ParseResult, bool) {
	direction, ok := detectDirection(body)
	if !ok {
		return ParseResult{}, false
	}

	amount, ok := parseAmount(p.Amount, body)
	if !ok {
		return ParseResult{}, false
	}

	recipientRe := p.SentRecipient
	if direction == storage.DirectionReceived {
		recipientRe = p.ReceivedRecipient
	}

	return ParseResult{
		Amount:      amount,
		Recipient:   normalizeRecipient(firstGroup(recipientRe, body)),
		Direction:   direction,
		Vendor:      p.Label,
		ReferenceID: firstGroup(p.Reference, body),
	}, true
}

// genericUPI is the fallback for senders no vendor claims. It only looks at
// messages that mention UPI.
type genericUPI struct {
	VendorPattern
}

func (g *genericUPI) Matches(sender, body string) bool {
	return strings.Contains(strings.ToLower(body), "upi")
}

// detectDirection goes by whichever direction keyword comes first in body.
func detectDirection(body string) (storage.Direction, bool) {
	sent := sentKeywords.FindStringIndex(body)
	received := receivedKeywords.FindStringIndex(body)
	switch {
	case sent != nil && (received == nil || sent[0] <= received[0]):
		return storage.DirectionSent, true
	case received != nil:
		return storage.DirectionReceived, true
	default:
		return "", false
	}
}

// parseAmount strips thousands separators and requires a positive decimal.
func parseAmount(re *regexp.Regexp, body string) (decimal.Decimal, bool) {
	raw := strings.ReplaceAll(firstGroup(re, body), ",", "")
	if raw == "" {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func firstGroup(re *regexp.Regexp, s string) string {
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func normalizeRecipient(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
	// Normalize double spaces
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return UnknownRecipient
	}
	return s
}
