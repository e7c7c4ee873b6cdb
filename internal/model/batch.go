package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus represents the lifecycle state of an import batch.
type BatchStatus string

const (
	BatchCompleted  BatchStatus = "completed"
	BatchRolledBack BatchStatus = "rolled_back"
)

// ImportBatch is one commit operation. It is only ever mutated to flip Status
// to rolled_back.
type ImportBatch struct {
	ID             string      `json:"id"`
	SourceFile     string      `json:"sourceFile"`
	CreatedAt      time.Time   `json:"createdAt"`
	ImportedCount  int         `json:"importedCount"`
	DuplicateCount int         `json:"duplicateCount"`
	ErrorCount     int         `json:"errorCount"`
	Status         BatchStatus `json:"status"`
	RolledBackAt   *time.Time  `json:"rolledBackAt,omitempty"`
	MatchLog       string      `json:"-"`
}

// CommittedRow is the persisted write contract for one imported transaction.
type CommittedRow struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batchId"`
	Line        int             `json:"line"`
	EntityID    *string         `json:"entityId"` // vendor for expenses, client for revenue
	ProjectID   *string         `json:"projectId"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Kind        TransactionKind `json:"kind"`
	AccountPath string          `json:"accountPath"`
	SourceName  string          `json:"sourceName"`
	DedupKey    string          `json:"dedupKey"`

	// Revenue rows only.
	InvoiceNumber *string `json:"invoiceNumber,omitempty"`
	ClientID      *string `json:"clientId,omitempty"`
}
