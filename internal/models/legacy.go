package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSON keys the migration reads or writes on legacy records.
const (
	FieldID               = "id"
	FieldContent          = "content"
	FieldType             = "type"
	FieldContentType      = "contentType"
	FieldMarkdownPath     = "markdownPath"
	FieldMarkdownMigrated = "markdownMigrated"
	FieldImages           = "images"
	FieldVideos           = "videos"
	FieldExternalLinks    = "externalLinks"
)

// Record is one entry of a legacy JSON index file. It is either a
// *LegacyRecord (inline content only) or a *MigratedRecord (content moved to
// a markdown file). Every key, including ones this package does not know
// about, is written back in its original order.
type Record interface {
	ID() string
	Content() string
	TypeHint() string
	Media() MediaReferenceSet
	Migrated() bool
	MarshalJSON() ([]byte, error)
}

type fields = orderedmap.OrderedMap[string, json.RawMessage]

type recordFields struct {
	f *fields
}

// ID returns the record's id. Numeric ids are returned in their JSON form.
func (r recordFields) ID() string {
	raw, ok := r.f.Get(FieldID)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Content returns the inline content string, or "" when absent or not a string.
func (r recordFields) Content() string {
	return r.str(FieldContent)
}

// TypeHint returns the record's own type field ("type" or "contentType"), if any.
func (r recordFields) TypeHint() string {
	if s := r.str(FieldType); s != "" {
		return s
	}
	return r.str(FieldContentType)
}

// Media decodes the record's images, videos and externalLinks arrays.
// Malformed arrays decode as empty.
func (r recordFields) Media() MediaReferenceSet {
	var m MediaReferenceSet
	if raw, ok := r.f.Get(FieldImages); ok {
		_ = json.Unmarshal(raw, &m.Images)
	}
	if raw, ok := r.f.Get(FieldVideos); ok {
		_ = json.Unmarshal(raw, &m.Videos)
	}
	if raw, ok := r.f.Get(FieldExternalLinks); ok {
		_ = json.Unmarshal(raw, &m.ExternalLinks)
	}
	return m
}

// MarshalJSON writes the record with its original key order. Values are
// compacted but otherwise kept byte for byte; HTML characters are not escaped.
func (r recordFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for p := r.f.Oldest(); p != nil; p = p.Next() {
		if p != r.f.Oldest() {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(p.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, p.Value); err != nil {
			return nil, fmt.Errorf("field %q: %w", p.Key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func (r recordFields) str(key string) string {
	raw, ok := r.f.Get(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (r recordFields) clone() *fields {
	out := orderedmap.New[string, json.RawMessage]()
	for p := r.f.Oldest(); p != nil; p = p.Next() {
		out.Set(p.Key, p.Value)
	}
	return out
}

// LegacyRecord is a record whose content still lives inline.
type LegacyRecord struct {
	recordFields
}

// Migrated reports false.
func (*LegacyRecord) Migrated() bool { return false }

// Migrate builds the migrated variant pointing at markdownPath. The inline
// content is kept for backward compatibility.
func (r *LegacyRecord) Migrate(markdownPath string) *MigratedRecord {
	f := r.clone()
	path, _ := json.Marshal(markdownPath)
	f.Set(FieldMarkdownPath, path)
	f.Set(FieldMarkdownMigrated, json.RawMessage("true"))
	return &MigratedRecord{recordFields: recordFields{f: f}, markdownPath: markdownPath}
}

// MigratedRecord is a record whose markdown file is the source of truth.
type MigratedRecord struct {
	recordFields
	markdownPath string
}

// Migrated reports true.
func (*MigratedRecord) Migrated() bool { return true }

// MarkdownPath returns the storage-relative path of the record's markdown file.
func (r *MigratedRecord) MarkdownPath() string { return r.markdownPath }

// Revert strips the migration markers, producing the legacy variant again.
func (r *MigratedRecord) Revert() *LegacyRecord {
	f := r.clone()
	f.Delete(FieldMarkdownPath)
	f.Delete(FieldMarkdownMigrated)
	return &LegacyRecord{recordFields: recordFields{f: f}}
}

// DecodeRecord parses one JSON object into its Record variant.
func DecodeRecord(data []byte) (Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("record is not a JSON object")
	}
	f := orderedmap.New[string, json.RawMessage]()
	if err := f.UnmarshalJSON(trimmed); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	base := recordFields{f: f}
	if raw, ok := f.Get(FieldMarkdownMigrated); ok && bytes.Equal(bytes.TrimSpace(raw), []byte("true")) {
		return &MigratedRecord{recordFields: base, markdownPath: base.str(FieldMarkdownPath)}, nil
	}
	return &LegacyRecord{recordFields: base}, nil
}

// DecodeRecords parses a legacy index file: a JSON array of objects.
func DecodeRecords(data []byte) ([]Record, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	out := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// EncodeRecords writes records as an indented JSON array with a trailing newline.
func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return buf.Bytes(), nil
}
