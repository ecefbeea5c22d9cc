package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

type memWriter struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemWriter() *memWriter {
	return &memWriter{objects: map[string][]byte{}, types: map[string]string{}}
}

func (w *memWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.objects[path] = b
	w.types[path] = contentType
	return nil
}

func (w *memWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return w.Put(ctx, path, data, "multipart")
}

type fixedSource struct {
	listings []domain.Listing
	cutoff   time.Time
}

func (s *fixedSource) ListBefore(_ context.Context, before time.Time) ([]domain.Listing, error) {
	s.cutoff = before
	return s.listings, nil
}

type auditRecorder struct {
	events  []string
	details []map[string]any
}

func (a *auditRecorder) Log(_ context.Context, event string, detail map[string]any) error {
	a.events = append(a.events, event)
	a.details = append(a.details, detail)
	return nil
}

func (a *auditRecorder) ListRecent(context.Context, int) ([]domain.AuditEntry, error) {
	return nil, nil
}

func listingAt(id string, at time.Time) domain.Listing {
	return domain.Listing{
		ID:        id,
		MarketKey: "market",
		SellerID:  "p1",
		Item:      domain.ItemOffer{Type: "DIAMOND", Amount: 1},
		Price:     10,
		CreatedAt: at,
	}
}

func TestArchiveListings_GroupsByMonth(t *testing.T) {
	src := &fixedSource{listings: []domain.Listing{
		listingAt("a", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		listingAt("b", time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)),
		listingAt("c", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
	}}
	w := newMemWriter()
	audit := &auditRecorder{}
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	n, err := NewListingArchiver(w, src, audit).ArchiveListings(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveListings: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if !src.cutoff.Equal(cutoff) {
		t.Errorf("source queried with %s", src.cutoff)
	}

	jan := w.objects["archive/listings/2026-01.jsonl"]
	feb := w.objects["archive/listings/2026-02.jsonl"]
	if jan == nil || feb == nil {
		t.Fatalf("objects = %v", keys(w.objects))
	}
	if w.types["archive/listings/2026-01.jsonl"] != "application/x-ndjson" {
		t.Errorf("content type = %q", w.types["archive/listings/2026-01.jsonl"])
	}

	var ids []string
	sc := bufio.NewScanner(bytes.NewReader(jan))
	for sc.Scan() {
		var l domain.Listing
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		ids = append(ids, l.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("january ids = %v", ids)
	}

	if len(audit.events) != 1 || audit.events[0] != "archive.listings" {
		t.Errorf("audit = %v", audit.events)
	}
}

func TestArchiveListings_Empty(t *testing.T) {
	w := newMemWriter()
	audit := &auditRecorder{}
	n, err := NewListingArchiver(w, &fixedSource{}, audit).ArchiveListings(context.Background(), time.Now())
	if err != nil || n != 0 {
		t.Fatalf("ArchiveListings = %d, %v", n, err)
	}
	if len(w.objects) != 0 || len(audit.events) != 0 {
		t.Errorf("empty archive wrote %v / audited %v", keys(w.objects), audit.events)
	}
}

func TestArchiveListings_UploadError(t *testing.T) {
	w := newMemWriter()
	w.err = errors.New("bucket gone")
	src := &fixedSource{listings: []domain.Listing{listingAt("a", time.Now())}}

	if _, err := NewListingArchiver(w, src, nil).ArchiveListings(context.Background(), time.Now()); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"http://localhost:9000", true, "http://localhost:9000"},
		{"10.0.0.5:9000", false, "http://10.0.0.5:9000"},
		{"r2.example.com", true, "https://r2.example.com"},
	}
	for _, tt := range tests {
		if got := normaliseEndpoint(tt.in, tt.useSSL); got != tt.want {
			t.Errorf("normaliseEndpoint(%q, %t) = %q, want %q", tt.in, tt.useSSL, got, tt.want)
		}
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
