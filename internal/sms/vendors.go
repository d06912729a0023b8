package sms

import "regexp"

// GenericPriority is the slot of the UPI fallback; vendor extractors sort before it.
const GenericPriority = 1000

const (
	rupeeAmount = `(?i)(?:\bRs\.?|\bINR|₹)\s*(\d[\d,]*(?:\.\d+)?)`
	// end of a recipient: a connective word, an opening bracket, or sentence punctuation
	recipientEnd = `(?:\s+(?:on|via|using|from|in|ref|upi|txn|for|at)\b|\s*\(|[.,;](?:\s|$)|$)`
	referenceNo  = `(?i)\bRef(?:erence)?\.?(?:\s*No\.?|\s*ID)?\s*[:#]?\s*([A-Za-z0-9]*\d[A-Za-z0-9]*)`
)

var (
	toRecipient          = regexp.MustCompile(`(?i)\bto\s+(.+?)` + recipientEnd)
	fromRecipient        = regexp.MustCompile(`(?i)\bfrom\s+(.+?)` + recipientEnd)
	beneficiaryRecipient = regexp.MustCompile(`(?i)\b(?:beneficiary|to)\s*:?\s+(.+?)` + recipientEnd)
	byRecipient          = regexp.MustCompile(`(?i)\b(?:from|by)\s+(?:VPA\s+)?(.+?)` + recipientEnd)
)

func googlePay() *VendorPattern {
	return &VendorPattern{
		Label:             "Google Pay",
		SenderTokens:      []string{"gpay", "googlepay", "google pay"},
		Amount:            regexp.MustCompile(rupeeAmount),
		SentRecipient:     toRecipient,
		ReceivedRecipient: fromRecipient,
		Reference:         regexp.MustCompile(referenceNo),
	}
}

func phonePe() *VendorPattern {
	return &VendorPattern{
		Label:             "PhonePe",
		SenderTokens:      []string{"phonepe", "phnpe"},
		Amount:            regexp.MustCompile(rupeeAmount),
		SentRecipient:     toRecipient,
		ReceivedRecipient: fromRecipient,
		Reference:         regexp.MustCompile(`(?i)\b(?:Txn|Transaction)\.?(?:\s*ID|\s*No\.?)?\s*[:#]?\s*([A-Za-z0-9]*\d[A-Za-z0-9]*)`),
	}
}

func paytm() *VendorPattern {
	return &VendorPattern{
		Label:             "Paytm",
		SenderTokens:      []string{"paytm"},
		Amount:            regexp.MustCompile(`(?i)(?:\bRs\.?|\bINR)\s*(\d[\d,]*(?:\.\d+)?)`),
		SentRecipient:     toRecipient,
		ReceivedRecipient: fromRecipient,
		Reference:         regexp.MustCompile(referenceNo),
	}
}

func bhim() *VendorPattern {
	return &VendorPattern{
		Label:             "BHIM",
		SenderTokens:      []string{"bhim", "npci"},
		Amount:            regexp.MustCompile(rupeeAmount),
		SentRecipient:     toRecipient,
		ReceivedRecipient: fromRecipient,
		Reference:         regexp.MustCompile(referenceNo),
	}
}

func amazonPay() *VendorPattern {
	return &VendorPattern{
		Label:             "Amazon Pay",
		SenderTokens:      []string{"amazonpay", "amazon pay", "amzpay", "apay"},
		Amount:            regexp.MustCompile(rupeeAmount),
		SentRecipient:     toRecipient,
		ReceivedRecipient: fromRecipient,
		Reference:         regexp.MustCompile(referenceNo),
	}
}

// bank covers bank-issued UPI alerts, which name the payee as a beneficiary and the
// payer by VPA.
func bank(label string, tokens ...string) *VendorPattern {
	return &VendorPattern{
		Label:             label,
		SenderTokens:      tokens,
		Amount:            regexp.MustCompile(rupeeAmount),
		SentRecipient:     beneficiaryRecipient,
		ReceivedRecipient: byRecipient,
		Reference:         regexp.MustCompile(referenceNo),
	}
}

// mpesa handles Safaricom M-PESA confirmations, where the leading transaction code is
// the reference and the counterparty runs up to the " on d/m/yy" date.
func mpesa() *VendorPattern {
	return &VendorPattern{
		Label:             "M-PESA",
		SenderTokens:      []string{"mpesa", "m-pesa"},
		Amount:            regexp.MustCompile(`(?i)Ksh\s*(\d[\d,]*(?:\.\d+)?)`),
		SentRecipient:     regexp.MustCompile(`(?i)\b(?:sent|paid)\s+to\s+(.*?)\s*\.?\s+on\s+\d{1,2}/\d{1,2}/\d{2}`),
		ReceivedRecipient: regexp.MustCompile(`(?i)\bfrom\s+(.*?)\s*\.?\s+on\s+\d{1,2}/\d{1,2}/\d{2}`),
		Reference:         regexp.MustCompile(`^\s*([A-Z0-9]{8,12})\s+Confirmed`),
	}
}

func genericFallback() *genericUPI {
	return &genericUPI{VendorPattern{
		Label:             "UPI",
		Amount:            regexp.MustCompile(rupeeAmount),
		SentRecipient:     beneficiaryRecipient,
		ReceivedRecipient: fromRecipient,
		Reference:         regexp.MustCompile(referenceNo),
	}}
}

// DefaultRegistry returns the built-in vendor set followed by the UPI fallback.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Entry{Priority: 10, Extractor: googlePay()},
		Entry{Priority: 20, Extractor: phonePe()},
		Entry{Priority: 30, Extractor: paytm()},
		Entry{Priority: 40, Extractor: amazonPay()},
		Entry{Priority: 50, Extractor: bhim()},
		Entry{Priority: 60, Extractor: mpesa()},
		Entry{Priority: 100, Extractor: bank("HDFC Bank", "hdfc")},
		Entry{Priority: 110, Extractor: bank("ICICI Bank", "icici")},
		Entry{Priority: 120, Extractor: bank("SBI", "sbi")},
		Entry{Priority: 130, Extractor: bank("Axis Bank", "axis")},
		Entry{Priority: 140, Extractor: bank("Kotak Bank", "kotak")},
		Entry{Priority: GenericPriority, Extractor: genericFallback()},
	)
}
