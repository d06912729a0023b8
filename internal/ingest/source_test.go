package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const backup = `{"address":"VM-GPAYIN","body":"Rs.10 debited to A via Google Pay. Ref #1","date":1740819600000}

{"address":"MPESA","body":"TIH5CRR635 Confirmed. Ksh65.00 paid to X. on 17/9/25","date":1740823200000}
{"address":"XY","body":"old","date":1700000000000}
`

func TestJSONLSourceOrdersNewestFirst(t *testing.T) {
	cur, err := JSONLSource{R: strings.NewReader(backup)}.Open(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cur.Close()

	if cur.Total() != 3 {
		t.Fatalf("total = %d, want 3", cur.Total())
	}
	var senders []string
	for {
		m, ok := cur.Next()
		if !ok {
			break
		}
		senders = append(senders, m.Sender)
	}
	if got := strings.Join(senders, ","); got != "MPESA,VM-GPAYIN,XY" {
		t.Errorf("order = %s", got)
	}
}

func TestJSONLSourceSince(t *testing.T) {
	since := time.UnixMilli(1740000000000)
	cur, err := JSONLSource{R: strings.NewReader(backup)}.Open(context.Background(), since)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if cur.Total() != 2 {
		t.Errorf("total = %d, want 2", cur.Total())
	}
}

func TestReadBackupRejectsBadLine(t *testing.T) {
	_, err := ReadBackup(strings.NewReader("{\"address\":\"a\",\"body\":\"b\",\"date\":1}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("err = %v, want a line 2 decode error", err)
	}
}

func TestOpenLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"gs://sms-backups/2025/march.jsonl", GCSSource{Bucket: "sms-backups", Object: "2025/march.jsonl"}, false},
		{"gs://bucket-only", nil, true},
		{"gs:///object", nil, true},
		{"/tmp/sms.jsonl", FileSource{Path: "/tmp/sms.jsonl"}, false},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := OpenLocation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

const xmlExport = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<smses count="2">
  <sms protocol="0" address="VM-GPAYIN" date="1740819600000" type="1" body="Rs.10 debited to A via Google Pay. Ref #1" />
  <sms protocol="0" address="MPESA" date="1740823200000" type="1" body="TIH5CRR635 Confirmed. Ksh65.00 paid to X. on 17/9/25" />
</smses>`

func TestFileSourceFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file    string
		content string
	}{
		{"backup.jsonl", backup},
		{"backup.XML", xmlExport},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p := filepath.Join(dir, tt.file)
			if err := os.WriteFile(p, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			cur, err := FileSource{Path: p}.Open(context.Background(), time.UnixMilli(1740000000000))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if cur.Total() != 2 {
				t.Fatalf("total = %d, want 2", cur.Total())
			}
			first, _ := cur.Next()
			if first.Sender != "MPESA" || !first.ReceivedAt.Equal(time.UnixMilli(1740823200000)) {
				t.Errorf("first = %+v", first)
			}
		})
	}
}

func TestReadBackupXMLRejectsBadDate(t *testing.T) {
	_, err := ReadBackupXML(strings.NewReader(`<smses><sms address="a" body="b" date="yesterday"/></smses>`))
	if err == nil {
		t.Error("expected an error for a non-numeric date")
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := (FileSource{Path: filepath.Join(t.TempDir(), "nope.jsonl")}).Open(context.Background(), time.Time{}); err == nil {
		t.Error("expected an error for a missing file")
	}
}
