package sms

import (
	"testing"

	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/shopspring/decimal"
)

func TestRegistryExtract_GooglePay(t *testing.T) {
	body := "Rs.1,500.00 debited from your account to John on 15-Jan via Google Pay. Ref #123"

	res, ok := DefaultRegistry().Extract("VM-GPAYIN", body)
	if !ok {
		t.Fatal("expected a match")
	}
	if !res.Amount.Equal(decimal.RequireFromString("1500.00")) {
		t.Errorf("amount = %s, want 1500.00", res.Amount)
	}
	if res.Direction != storage.DirectionSent {
		t.Errorf("direction = %s, want SENT", res.Direction)
	}
	if res.Vendor != "Google Pay" {
		t.Errorf("vendor = %q, want Google Pay", res.Vendor)
	}
	if res.ReferenceID != "123" {
		t.Errorf("reference = %q, want 123", res.ReferenceID)
	}
	if res.Recipient != "John" {
		t.Errorf("recipient = %q, want John", res.Recipient)
	}
}

func TestRegistryExtract_Vendors(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		body      string
		amount    string
		direction storage.Direction
		recipient string
		vendor    string
		ref       string
	}{
		{
			name:      "paytm sent",
			sender:    "AD-PAYTMB",
			body:      "Rs 350 paid to Uber India from your Paytm Wallet. UPI Ref: 412345678901",
			amount:    "350",
			direction: storage.DirectionSent,
			recipient: "Uber India",
			vendor:    "Paytm",
			ref:       "412345678901",
		},
		{
			name:      "paytm received",
			sender:    "AD-PAYTMB",
			body:      "Rs.1,000 received from Amit Shah in your Paytm account. Ref: 98765",
			amount:    "1000",
			direction: storage.DirectionReceived,
			recipient: "Amit Shah",
			vendor:    "Paytm",
			ref:       "98765",
		},
		{
			name:      "phonepe sent",
			sender:    "VK-PHONEPE",
			body:      "Paid ₹250 to Swiggy using PhonePe. Txn ID: T2301151234",
			amount:    "250",
			direction: storage.DirectionSent,
			recipient: "Swiggy",
			vendor:    "PhonePe",
			ref:       "T2301151234",
		},
		{
			name:      "phonepe received",
			sender:    "PhonePe",
			body:      "Received ₹500.50 from Rahul Kumar on PhonePe. Txn ID T2301159999",
			amount:    "500.50",
			direction: storage.DirectionReceived,
			recipient: "Rahul Kumar",
			vendor:    "PhonePe",
			ref:       "T2301159999",
		},
		{
			name:      "bhim sent",
			sender:    "BHIM",
			body:      "You have sent Rs 120.00 to Chai Point (chaipoint@ybl) via BHIM UPI. UPI Ref No 412398765432.",
			amount:    "120",
			direction: storage.DirectionSent,
			recipient: "Chai Point",
			vendor:    "BHIM",
			ref:       "412398765432",
		},
		{
			name:      "bank beneficiary",
			sender:    "AX-HDFCBK",
			body:      "INR 2,000.00 debited from A/c XX1234 on 15-01-25. Beneficiary: Ramesh Traders. UPI Ref 123456789012",
			amount:    "2000",
			direction: storage.DirectionSent,
			recipient: "Ramesh Traders",
			vendor:    "HDFC Bank",
			ref:       "123456789012",
		},
		{
			name:      "bank credit by vpa",
			sender:    "JD-ICICIB",
			body:      "Rs 5000.00 credited to A/c XX1234 by VPA alice@okaxis on 16-01-25 (UPI Ref No 432109876543)",
			amount:    "5000",
			direction: storage.DirectionReceived,
			recipient: "alice@okaxis",
			vendor:    "ICICI Bank",
			ref:       "432109876543",
		},
		{
			name:      "generic upi without reference",
			sender:    "XY-RANDOM",
			body:      "Rs.75 sent to Metro Card Recharge via UPI",
			amount:    "75",
			direction: storage.DirectionSent,
			recipient: "Metro Card Recharge",
			vendor:    "UPI",
			ref:       "",
		},
	}

	registry := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := registry.Extract(tt.sender, tt.body)
			if !ok {
				t.Fatal("expected a match")
			}
			if !res.Amount.Equal(decimal.RequireFromString(tt.amount)) {
				t.Errorf("amount = %s, want %s", res.Amount, tt.amount)
			}
			if res.Direction != tt.direction {
				t.Errorf("direction = %s, want %s", res.Direction, tt.direction)
			}
			if res.Recipient != tt.recipient {
				t.Errorf("recipient = %q, want %q", res.Recipient, tt.recipient)
			}
			if res.Vendor != tt.vendor {
				t.Errorf("vendor = %q, want %q", res.Vendor, tt.vendor)
			}
			if res.ReferenceID != tt.ref {
				t.Errorf("reference = %q, want %q", res.ReferenceID, tt.ref)
			}
		})
	}
}

func TestRegistryExtract_MPesaVariants(t *testing.T) {
	cases := []struct {
		msg       string
		id        string
		recipient string
	}{
		{`TIH5CRR635 Confirmed. Ksh65.00 paid to Anthony Wambua Muinde2. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 498,760.00. Save frequent Tills for quick payment on M-PESA app https://bit.ly/mpesalnk`, "TIH5CRR635", "Anthony Wambua Muinde2"},
		{`TIH6CSP6KA Confirmed. Ksh40.00 sent to Co-operative Bank Money Transfer for account 1082111 on 17/9/25 at 6:59 PM New M-PESA balance is Ksh679.18. Transaction cost, Ksh0.00.`, "TIH6CSP6KA", "Co-operative Bank Money Transfer for account 1082111"},
		{`TII5I5YNFP Confirmed. Ksh35.00 paid to FELIX MWENDWA KIKOLE. on 18/9/25 at 7:18 PM.New M-PESA balance is Ksh644.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,965.00. Save frequent Tills for quick payment on M-PESA app https://bit.ly/mpesalnk`, "TII5I5YNFP", "FELIX MWENDWA KIKOLE"},
		{`TII8I79A5O Confirmed. Ksh40.00 sent to Divinah  Nyabuto on 18/9/25 at 7:22 PM. New M-PESA balance is Ksh604.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,925.00. Sign up for Lipa Na M-PESA Till online https://m-pesaforbusiness.co.ke`, "TII8I79A5O", "Divinah Nyabuto"},
		{`TIJ9N9U6HT Confirmed. Ksh25.00 sent to Caroline  Mwania on 19/9/25 at 7:05 PM. New M-PESA balance is Ksh579.18. Transaction cost, Ksh0.00. Amount you can transact within the day is 499,975.00. Sign up for Lipa Na M-PESA Till online https://m-pesaforbusiness.co.ke`, "TIJ9N9U6HT", "Caroline Mwania"},
	}

	registry := DefaultRegistry()
	for _, c := range cases {
		res, ok := registry.Extract("MPESA", c.msg)
		if !ok {
			t.Fatalf("expected parse ok for %s", c.id)
		}
		if res.ReferenceID != c.id {
			t.Fatalf("wrong id. want %s got %s", c.id, res.ReferenceID)
		}
		if !res.Amount.IsPositive() {
			t.Fatalf("expected positive amount for %s, got %s", c.id, res.Amount)
		}
		if res.Recipient != c.recipient {
			t.Errorf("recipient for %s = %q, want %q", c.id, res.Recipient, c.recipient)
		}
		if res.Vendor != "M-PESA" {
			t.Errorf("vendor = %q", res.Vendor)
		}
	}

	received := `TIK2ABC123 Confirmed.You have received Ksh1,000.00 from JOHN DOE 0712345678 on 20/9/25 at 10:15 AM New M-PESA balance is Ksh1,604.18.`
	res, ok := registry.Extract("MPESA", received)
	if !ok {
		t.Fatal("expected received message to parse")
	}
	if res.Direction != storage.DirectionReceived || res.Recipient != "JOHN DOE 0712345678" {
		t.Errorf("got direction=%s recipient=%q", res.Direction, res.Recipient)
	}
	if !res.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("amount = %s, want 1000 (not the balance)", res.Amount)
	}
}

func TestRegistryExtract_NoMatch(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		body   string
	}{
		{"no direction keyword and unknown sender", "XY-RANDOM", "Your OTP is 123456. Do not share it."},
		{"vendor without direction keyword", "VM-GPAYIN", "Rs.500 cashback is waiting for you on Google Pay"},
		{"direction keyword but no vendor and no upi", "XY-SHOP", "Your order was paid: Rs 500"},
		{"zero amount", "VM-GPAYIN", "Rs.0.00 debited from your account to John. Ref #1"},
		{"no amount", "VM-GPAYIN", "Money debited from your account to John"},
		{"empty", "", ""},
	}

	registry := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res, ok := registry.Extract(tt.sender, tt.body); ok {
				t.Errorf("expected no match, got %+v", res)
			}
		})
	}
}

func TestExtract_EmptyRecipientBecomesUnknown(t *testing.T) {
	res, ok := DefaultRegistry().Extract("VM-GPAYIN", "Rs.99 debited from your account. Ref #77")
	if !ok {
		t.Fatal("expected amount and direction to be enough for a match")
	}
	if res.Recipient != UnknownRecipient {
		t.Errorf("recipient = %q, want %q", res.Recipient, UnknownRecipient)
	}
}

func TestDirectionFollowsFirstKeyword(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		body      string
		direction storage.Direction
		recipient string
	}{
		{
			name:      "debit then credit",
			sender:    "VM-GPAYIN",
			body:      "Rs.10 debited from your account and credited to Asha. Ref #5",
			direction: storage.DirectionSent,
			recipient: "Asha",
		},
		{
			name:      "credit alert with fraud footer",
			sender:    "AD-HDFCBK",
			body:      "INR 500.00 credited to A/c XX1234 by VPA bob@okicici on 16-01-25. If not sent by you, call 18002586161",
			direction: storage.DirectionReceived,
			recipient: "bob@okicici",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := DefaultRegistry().Extract(tt.sender, tt.body)
			if !ok {
				t.Fatal("expected a match")
			}
			if res.Direction != tt.direction {
				t.Errorf("direction = %s, want %s", res.Direction, tt.direction)
			}
			if res.Recipient != tt.recipient {
				t.Errorf("recipient = %q, want %q", res.Recipient, tt.recipient)
			}
		})
	}
}

// stubExtractor records whether Extract was called.
type stubExtractor struct {
	name    string
	matches bool
	result  bool
	called  bool
}

func (s *stubExtractor) Name() string             { return s.name }
func (s *stubExtractor) Matches(_, _ string) bool { return s.matches }
func (s *stubExtractor) Extract(string) (ParseResult, bool) {
	s.called = true
	return ParseResult{Vendor: s.name, Amount: decimal.NewFromInt(1)}, s.result
}

func TestRegistry_PriorityOrderAndShortCircuit(t *testing.T) {
	generic := &stubExtractor{name: "generic", matches: true, result: true}
	failing := &stubExtractor{name: "failing", matches: true, result: false}
	winner := &stubExtractor{name: "winner", matches: true, result: true}
	unrelated := &stubExtractor{name: "unrelated", matches: false, result: true}

	// declared out of order on purpose
	r := NewRegistry(
		Entry{Priority: GenericPriority, Extractor: generic},
		Entry{Priority: 30, Extractor: winner},
		Entry{Priority: 10, Extractor: unrelated},
		Entry{Priority: 20, Extractor: failing},
	)

	want := []string{"unrelated", "failing", "winner", "generic"}
	for i, n := range r.Names() {
		if n != want[i] {
			t.Fatalf("order = %v, want %v", r.Names(), want)
		}
	}

	res, ok := r.Extract("s", "b")
	if !ok || res.Vendor != "winner" {
		t.Fatalf("expected winner, got %+v ok=%v", res, ok)
	}
	if !failing.called {
		t.Error("failing extractor should have been tried first")
	}
	if unrelated.called {
		t.Error("non-matching extractor must not extract")
	}
	if generic.called {
		t.Error("generic extractor must not be consulted after a success")
	}
}

func TestDefaultRegistry_GenericIsLast(t *testing.T) {
	names := DefaultRegistry().Names()
	if names[len(names)-1] != "UPI" {
		t.Errorf("expected UPI fallback last, got %v", names)
	}
}
