package database

import (
	"time"

	"github.com/uptrace/bun"

	"clipvault/internal/clipboard"
)

// Entry is one durable history record. CreatedAt and ContentKind are fixed
// at insert; SortKey moves on promote and manual reorder. Deletion is a soft
// delete so fingerprint uniqueness applies to active rows only.
type Entry struct {
	bun.BaseModel `bun:"table:entries"`

	ID          string         `bun:"id,pk" json:"id"`
	DisplayText string         `bun:"display_text,notnull" json:"display_text"`
	CreatedAt   time.Time      `bun:"created_at,notnull" json:"created_at"`
	SortKey     time.Time      `bun:"sort_key,notnull" json:"sort_key"`
	ContentKind clipboard.Kind `bun:"content_kind,notnull" json:"content_kind"`
	RawPayload  []byte         `bun:"raw_payload,notnull" json:"-"`
	SourceApp   string         `bun:"source_app,nullzero" json:"source_app,omitempty"`
	Fingerprint string         `bun:"fingerprint,notnull" json:"fingerprint"`

	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Summary is the lightweight listing projection of an Entry. Payloads may be
// large and must never be loaded during scroll, so RawPayload stays out.
type Summary struct {
	bun.BaseModel `bun:"table:entries,alias:e"`

	ID          string         `bun:"id" json:"id"`
	DisplayText string         `bun:"display_text" json:"display_text"`
	CreatedAt   time.Time      `bun:"created_at" json:"created_at"`
	SortKey     time.Time      `bun:"sort_key" json:"sort_key"`
	ContentKind clipboard.Kind `bun:"content_kind" json:"content_kind"`
	SourceApp   string         `bun:"source_app" json:"source_app,omitempty"`
	Fingerprint string         `bun:"fingerprint" json:"fingerprint"`
}
