package lf

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"lostfound/internal/model"
)

// SnapshotFormatVersion is written into every snapshot document.
const SnapshotFormatVersion = "1.0"

// SnapshotKind distinguishes user-triggered from scheduled snapshots.
type SnapshotKind string

const (
	KindManual    SnapshotKind = "manual"
	KindAutomatic SnapshotKind = "automatic"
)

// Valid reports whether k is a known kind.
func (k SnapshotKind) Valid() bool {
	return k == KindManual || k == KindAutomatic
}

const (
	manualPrefix = "backup_"
	autoPrefix   = "auto_backup_"
	snapshotExt  = ".json"

	// Manual names have second granularity; automatic names have minute
	// granularity so that repeated requests within a minute collapse.
	manualLayout = "2006-01-02_15-04-05"
	autoLayout   = "2006-01-02_15-04"

	autoDocumentType = "auto"
)

// SnapshotName returns the file name for a snapshot of kind taken at t.
func SnapshotName(kind SnapshotKind, t time.Time) string {
	if kind == KindAutomatic {
		return autoPrefix + t.Format(autoLayout) + snapshotExt
	}
	return manualPrefix + t.Format(manualLayout) + snapshotExt
}

// ParseSnapshotName extracts the kind and creation time encoded in name.
// Names that do not follow the snapshot naming scheme are rejected with ErrValidation.
func ParseSnapshotName(name string, loc *time.Location) (SnapshotKind, time.Time, error) {
	if !strings.HasSuffix(name, snapshotExt) || strings.ContainsAny(name, `/\`) {
		return "", time.Time{}, validationf("invalid snapshot name %q", name)
	}
	stem := strings.TrimSuffix(name, snapshotExt)

	var (
		kind   SnapshotKind
		layout string
		stamp  string
	)
	switch {
	case strings.HasPrefix(stem, autoPrefix):
		kind, layout, stamp = KindAutomatic, autoLayout, strings.TrimPrefix(stem, autoPrefix)
	case strings.HasPrefix(stem, manualPrefix):
		kind, layout, stamp = KindManual, manualLayout, strings.TrimPrefix(stem, manualPrefix)
	default:
		return "", time.Time{}, validationf("invalid snapshot name %q", name)
	}

	t, err := time.ParseInLocation(layout, stamp, loc)
	if err != nil {
		return "", time.Time{}, validationf("invalid snapshot timestamp in %q", name)
	}
	return kind, t, nil
}

// checkSnapshotName rejects names that could escape the vault with
// ErrValidation. Any other name that does not follow the naming scheme
// cannot exist in the vault and is reported as ErrNotFound.
func checkSnapshotName(name string, loc *time.Location) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return validationf("invalid snapshot name %q", name)
	}
	if _, _, err := ParseSnapshotName(name, loc); err != nil {
		return notFoundf("snapshot %s not found", name)
	}
	return nil
}

// snapshotDocument is the on-disk JSON layout of a snapshot.
type snapshotDocument struct {
	Version      string          `json:"version"`
	Type         string          `json:"type,omitempty"`
	CreatedAt    string          `json:"created_at"`
	TotalRecords int             `json:"total_records"`
	DatabaseName string          `json:"database_name"`
	Data         json.RawMessage `json:"data"`
}

// encodeSnapshot serializes items into a snapshot document.
func encodeSnapshot(kind SnapshotKind, createdAt time.Time, databaseName string, items []*model.Item) ([]byte, error) {
	if items == nil {
		items = []*model.Item{}
	}
	var payload bytes.Buffer
	penc := json.NewEncoder(&payload)
	penc.SetEscapeHTML(false)
	if err := penc.Encode(items); err != nil {
		return nil, errors.Wrap(err, "encoding snapshot payload")
	}

	doc := snapshotDocument{
		Version:      SnapshotFormatVersion,
		CreatedAt:    createdAt.Format(model.TimestampLayout),
		TotalRecords: len(items),
		DatabaseName: databaseName,
		Data:         bytes.TrimRight(payload.Bytes(), "\n"),
	}
	if kind == KindAutomatic {
		doc.Type = autoDocumentType
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "encoding snapshot document")
	}
	return buf.Bytes(), nil
}

// decodeSnapshot parses a snapshot document and returns its payload.
// A missing or null data field, or an undecodable record, is ErrInvalidFormat.
// Duplicate ids or lps within the payload are ErrInvalidFormat as well, since
// no store could accept them.
func decodeSnapshot(data []byte) (*snapshotDocument, []*model.Item, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Mark(errors.Wrap(err, "parsing snapshot document"), ErrInvalidFormat)
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return nil, nil, errors.Mark(errors.New("snapshot document has no data field"), ErrInvalidFormat)
	}

	var items []*model.Item
	if err := json.Unmarshal(doc.Data, &items); err != nil {
		return nil, nil, errors.Mark(errors.Wrap(err, "parsing snapshot records"), ErrInvalidFormat)
	}

	ids := make(map[int64]struct{}, len(items))
	lps := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item == nil {
			return nil, nil, errors.Mark(errors.Newf("snapshot record %d is null", i), ErrInvalidFormat)
		}
		if _, dup := ids[item.ID]; dup {
			return nil, nil, errors.Mark(errors.Newf("snapshot record %d repeats id %d", i, item.ID), ErrInvalidFormat)
		}
		if _, dup := lps[item.LP]; dup {
			return nil, nil, errors.Mark(errors.Newf("snapshot record %d repeats lp %q", i, item.LP), ErrInvalidFormat)
		}
		ids[item.ID] = struct{}{}
		lps[item.LP] = struct{}{}
	}

	return &doc, items, nil
}
