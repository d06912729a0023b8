package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/NgigiN/smswallet/internal/sms"
)

// Source yields historical messages for an import.
type Source interface {
	// Open returns a cursor over messages received at or after since, newest first.
	// A zero since means no cutoff.
	Open(ctx context.Context, since time.Time) (Cursor, error)
}

type Cursor interface {
	Total() int
	Next() (sms.Message, bool)
	Err() error
	Close() error
}

// SliceSource serves messages held in memory.
type SliceSource []sms.Message

func (s SliceSource) Open(_ context.Context, since time.Time) (Cursor, error) {
	return newSliceCursor([]sms.Message(s), since), nil
}

type sliceCursor struct {
	msgs []sms.Message
	pos  int
}

func newSliceCursor(msgs []sms.Message, since time.Time) *sliceCursor {
	kept := make([]sms.Message, 0, len(msgs))
	for _, m := range msgs {
		if !since.IsZero() && m.ReceivedAt.Before(since) {
			continue
		}
		kept = append(kept, m)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ReceivedAt.After(kept[j].ReceivedAt)
	})
	return &sliceCursor{msgs: kept}
}

func (c *sliceCursor) Total() int { return len(c.msgs) }

func (c *sliceCursor) Next() (sms.Message, bool) {
	if c.pos >= len(c.msgs) {
		return sms.Message{}, false
	}
	m := c.msgs[c.pos]
	c.pos++
	return m, true
}

func (c *sliceCursor) Err() error   { return nil }
func (c *sliceCursor) Close() error { return nil }

// backupRecord is one line of an Android SMS backup export.
type backupRecord struct {
	Address string `json:"address"`
	Body    string `json:"body"`
	Date    int64  `json:"date"` // epoch millis
}

const maxLineSize = 1 << 20

// ReadBackup decodes newline-delimited backup records. Blank lines are skipped.
func ReadBackup(r io.Reader) ([]sms.Message, error) {
	var msgs []sms.Message
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec backupRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("decode backup line %d: %w", line, err)
		}
		msgs = append(msgs, sms.Message{
			Sender:     rec.Address,
			Body:       rec.Body,
			ReceivedAt: time.UnixMilli(rec.Date),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return msgs, nil
}

// xmlBackup is the document written by the SMS Backup & Restore app.
type xmlBackup struct {
	XMLName xml.Name `xml:"smses"`
	SMS     []struct {
		Address string `xml:"address,attr"`
		Body    string `xml:"body,attr"`
		Date    string `xml:"date,attr"` // epoch millis
	} `xml:"sms"`
}

// ReadBackupXML decodes an SMS Backup & Restore export.
func ReadBackupXML(r io.Reader) ([]sms.Message, error) {
	var doc xmlBackup
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode xml backup: %w", err)
	}
	msgs := make([]sms.Message, 0, len(doc.SMS))
	for i, rec := range doc.SMS {
		ms, err := strconv.ParseInt(rec.Date, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sms %d: bad date %q: %w", i+1, rec.Date, err)
		}
		msgs = append(msgs, sms.Message{
			Sender:     rec.Address,
			Body:       rec.Body,
			ReceivedAt: time.UnixMilli(ms),
		})
	}
	return msgs, nil
}

// readBackupNamed picks the decoder from the file extension. Anything that is not
// .xml is read as JSON lines.
func readBackupNamed(name string, r io.Reader) ([]sms.Message, error) {
	if strings.EqualFold(path.Ext(name), ".xml") {
		return ReadBackupXML(r)
	}
	return ReadBackup(r)
}

// JSONLSource reads an SMS backup from an arbitrary reader. It can be opened once.
type JSONLSource struct {
	R io.Reader
}

func (s JSONLSource) Open(_ context.Context, since time.Time) (Cursor, error) {
	msgs, err := ReadBackup(s.R)
	if err != nil {
		return nil, err
	}
	return newSliceCursor(msgs, since), nil
}

// FileSource reads an SMS backup, JSON lines or XML, from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Open(_ context.Context, since time.Time) (Cursor, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	msgs, err := readBackupNamed(s.Path, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return newSliceCursor(msgs, since), nil
}

// GCSSource reads an SMS backup object, JSON lines or XML, from Google Cloud Storage.
type GCSSource struct {
	Bucket string
	Object string
}

// ParseGCSURI splits gs://bucket/path/to/object.
func ParseGCSURI(uri string) (GCSSource, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return GCSSource{}, fmt.Errorf("not a gs:// uri: %q", uri)
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return GCSSource{}, fmt.Errorf("gs uri needs a bucket and an object: %q", uri)
	}
	return GCSSource{Bucket: bucket, Object: object}, nil
}

func (s GCSSource) Open(ctx context.Context, since time.Time) (Cursor, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(s.Bucket).Object(s.Object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	msgs, err := readBackupNamed(s.Object, r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", s.Bucket, s.Object, err)
	}
	return newSliceCursor(msgs, since), nil
}

// OpenLocation picks a GCS or file source from a command-line location.
func OpenLocation(location string) (Source, error) {
	if strings.HasPrefix(location, "gs://") {
		return ParseGCSURI(location)
	}
	if location == "" {
		return nil, fmt.Errorf("no backup location given")
	}
	return FileSource{Path: location}, nil
}
