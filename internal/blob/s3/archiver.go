package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// multipartThreshold is the JSONL size above which uploads go through the
// multipart manager.
const multipartThreshold = 16 * 1024 * 1024

// ListingSource is the query the archiver needs from the listing store.
type ListingSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Listing, error)
}

// ListingArchiver implements domain.Archiver. It writes one JSONL object per
// creation month to archive/listings/YYYY-MM.jsonl. Listings stay in the
// primary store; each run rewrites the month files it covers.
type ListingArchiver struct {
	writer   domain.BlobWriter
	listings ListingSource
	audit    domain.AuditStore
}

// NewListingArchiver creates a ListingArchiver.
func NewListingArchiver(writer domain.BlobWriter, listings ListingSource, audit domain.AuditStore) *ListingArchiver {
	return &ListingArchiver{writer: writer, listings: listings, audit: audit}
}

// ArchiveListings exports every listing created before the cutoff and
// returns how many were written.
func (a *ListingArchiver) ArchiveListings(ctx context.Context, before time.Time) (int64, error) {
	listings, err := a.listings.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive listings query: %w", err)
	}
	if len(listings) == 0 {
		return 0, nil
	}

	byMonth := make(map[string][]domain.Listing)
	for _, l := range listings {
		month := l.CreatedAt.UTC().Format("2006-01")
		byMonth[month] = append(byMonth[month], l)
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	var count int64
	paths := make([]string, 0, len(months))
	for _, m := range months {
		buf, err := marshalJSONL(byMonth[m])
		if err != nil {
			return count, fmt.Errorf("s3blob: archive listings marshal %s: %w", m, err)
		}

		path := archivePath("listings", m)
		if len(buf) > multipartThreshold {
			err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), 0)
		} else {
			err = a.writer.Put(ctx, path, bytes.NewReader(buf), jsonlContentType)
		}
		if err != nil {
			return count, fmt.Errorf("s3blob: archive listings upload %s: %w", path, err)
		}
		count += int64(len(byMonth[m]))
		paths = append(paths, path)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.listings", map[string]any{
			"paths":  paths,
			"count":  count,
			"before": before.UTC().Format(time.RFC3339),
		}); err != nil {
			return count, fmt.Errorf("s3blob: archive listings audit log: %w", err)
		}
	}
	return count, nil
}

// archivePath builds archive/<kind>/<YYYY-MM>.jsonl.
func archivePath(kind, month string) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, month)
}

// marshalJSONL encodes items one JSON document per line.
func marshalJSONL[T any](items []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*ListingArchiver)(nil)
