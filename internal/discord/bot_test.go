package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NgigiN/smswallet/internal/analytics"
	"github.com/NgigiN/smswallet/internal/category"
	"github.com/NgigiN/smswallet/internal/ingest"
	"github.com/NgigiN/smswallet/internal/ledger"
	"github.com/NgigiN/smswallet/internal/sms"
	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const mpesaPaid = `TIH5CRR635 Confirmed. Ksh65.00 paid to Anthony Wambua Muinde2. on 17/9/25 at 6:56 PM.New M-PESA balance is Ksh719.18. Transaction cost, Ksh0.00.`
const mpesaSent = `TII8I79A5O Confirmed. Ksh40.00 sent to Divinah  Nyabuto on 18/9/25 at 7:22 PM. New M-PESA balance is Ksh604.18. Transaction cost, Ksh0.00.`

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "wallet.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := category.SeedDefaults(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	parser := sms.NewParser(sms.DefaultRegistry(), category.NewCategorizer(db))
	return &Bot{
		svc: Services{
			DB:       db,
			Pipeline: ingest.NewPipeline(parser, db, zerolog.Nop()),
			Engine:   analytics.NewEngine(db, time.UTC, time.Monday),
			Ledger:   ledger.NewService(db, zerolog.Nop()),
		},
		defaultSender: "MPESA",
		loc:           time.UTC,
		log:           zerolog.Nop(),
		startTime:     time.Now(),
	}
}

func TestSplitMessages(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []pastedMessage
	}{
		{
			name:    "single with metadata",
			content: mpesaPaid + "\nc: food\nr: lunch",
			want:    []pastedMessage{{Body: mpesaPaid, Category: "food", Notes: "lunch"}},
		},
		{
			name:    "batch without blank lines",
			content: mpesaPaid + "\nc: food\n" + mpesaSent + "\nReason: fare",
			want: []pastedMessage{
				{Body: mpesaPaid, Category: "food"},
				{Body: mpesaSent, Notes: "fare"},
			},
		},
		{
			name:    "sender line before body",
			content: "s: VM-GPAYIN\nRs.10 debited to A\nvia Google Pay\n\n" + mpesaSent,
			want: []pastedMessage{
				{Sender: "VM-GPAYIN", Body: "Rs.10 debited to A via Google Pay"},
				{Body: mpesaSent},
			},
		},
		{
			name:    "metadata only",
			content: "c: food",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessages(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d messages %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("message %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseMetadata(t *testing.T) {
	sender, cat, reason := parseMetadata([]string{"Category: Travel", "r: bus to town", "Sender: MPESA", "junk"})
	if sender != "MPESA" || cat != "Travel" || reason != "bus to town" {
		t.Errorf("got sender=%q category=%q reason=%q", sender, cat, reason)
	}
}

func TestRespondTracksPastedMessage(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)
	posted := time.Date(2025, time.September, 17, 18, 57, 0, 0, time.UTC)

	reply := b.respond(ctx, mpesaPaid+"\nc: food\nr: lunch", posted)
	if !strings.HasPrefix(reply, "Tracked TIH5CRR635: 65.00 to Anthony Wambua Muinde2 in Food") {
		t.Errorf("reply = %q", reply)
	}

	reply = b.respond(ctx, mpesaPaid, posted)
	if reply != "Already tracked TIH5CRR635" {
		t.Errorf("second reply = %q", reply)
	}

	txs, err := b.svc.DB.GetAllTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("stored %d, want 1", len(txs))
	}
	if txs[0].Notes != "lunch" || txs[0].SourceApp != "M-PESA" || txs[0].Timestamp != posted.UnixMilli() {
		t.Errorf("stored = %+v", txs[0])
	}
}

func TestRespondBatch(t *testing.T) {
	b := newTestBot(t)
	reply := b.respond(context.Background(), mpesaPaid+"\n\nhello there\n\n"+mpesaSent, time.Now())

	for _, want := range []string{"Batch Processing Complete** (3 messages)", "1. Tracked TIH5CRR635", "2. No payment found", "3. Tracked TII8I79A5O"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
}

func TestRespondCommands(t *testing.T) {
	ctx := context.Background()
	b := newTestBot(t)
	b.respond(ctx, mpesaPaid+"\nc: food", time.Now())

	tests := []struct {
		command string
		want    string
	}{
		{"!summary", "**Food**: 65.00 (1)"},
		{"!summary food", "**Total Food**: 65.00 (1 transactions)"},
		{"!summary travel", "No transactions found for category: Travel"},
		{"!budgets", "No active budgets"},
		{"!budget food 1000", "Budget set: Food 1000.00 per month (alert at 80%)"},
		{"!budget food 0", "Budget limit must be greater than zero"},
		{"!budget food lots", "Usage: !budget"},
		{"!budgets", "🟢 **Food** (monthly) [#1]"},
		{"!trends year", "unknown trend period"},
		{"!trends 7d", "**Trends 7d**"},
		{"!rule Naivas groceries", `Rule added: "naivas" → Groceries`},
		{"!rule naivas", "Usage: !rule"},
		{"!add 120 Corner Shop\nc: snacks", "Tracked #2: 120.00 to Corner Shop in Snacks"},
		{"!add -5 Corner Shop", "Amount must be greater than zero"},
		{"!learn 1 eating out", `Transaction #1 moved to Eating Out. Recipients containing "anthony" will be too.`},
		{"!learn 99 food", "Failed to save rule: not found"},
		{"!unbudget 1", "Budget #1 removed"},
		{"!unbudget x", "Usage: !unbudget"},
		{"!resetrules", "Rules reset to defaults"},
		{"!help", "**Commands**"},
		{"!dance", "Unknown command !dance"},
	}

	for _, tt := range tests {
		reply := b.respond(ctx, tt.command, time.Now())
		if !strings.Contains(reply, tt.want) {
			t.Errorf("%s: reply = %q, want it to contain %q", tt.command, reply, tt.want)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name      string
		session   bool
		ready     bool
		wantCode  int
		wantState string
	}{
		{"no session", false, false, http.StatusServiceUnavailable, "unhealthy"},
		{"session never opened", true, false, http.StatusServiceUnavailable, "unhealthy"},
		{"gateway ready", true, true, http.StatusOK, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBot(t)
			if tt.session {
				session, err := discordgo.New("Bot test-token")
				if err != nil {
					t.Fatalf("session: %v", err)
				}
				session.DataReady = tt.ready
				b.session = session
			}
			b.respond(context.Background(), mpesaPaid, time.Now())

			rec := httptest.NewRecorder()
			b.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body healthStatus
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantState || body.DiscordConnected != tt.ready || body.Transactions != 1 {
				t.Errorf("health = %+v", body)
			}
		})
	}
}
