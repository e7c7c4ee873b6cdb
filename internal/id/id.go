package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	batchPrefix = "imp"
	dayFormat   = "20060102"
	suffixLen   = 8
)

// NewBatchID returns a batch ID like "imp-20250115-3f2a9c1e".
func NewBatchID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return FormatBatchID(now, suffix)
}

// FormatBatchID builds a batch ID from its parts.
func FormatBatchID(day time.Time, suffix string) string {
	return fmt.Sprintf("%s-%s-%s", batchPrefix, day.UTC().Format(dayFormat), suffix)
}

// ParseBatchID parses "imp-20250115-3f2a9c1e" into its day and suffix.
func ParseBatchID(id string) (day time.Time, suffix string, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != batchPrefix || parts[2] == "" || strings.Contains(parts[2], "-") {
		return time.Time{}, "", fmt.Errorf("invalid batch ID format: %q", id)
	}
	day, err = time.Parse(dayFormat, parts[1])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid day in batch ID %q: %w", id, err)
	}
	return day, parts[2], nil
}

// FormatRowID returns a committed-row ID like "imp-20250115-3f2a9c1e-0001".
func FormatRowID(batchID string, seq int) string {
	return fmt.Sprintf("%s-%04d", batchID, seq)
}

// ParseRowID splits a row ID into its batch ID and sequence.
func ParseRowID(rowID string) (batchID string, seq int, err error) {
	i := strings.LastIndex(rowID, "-")
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid row ID format: %q", rowID)
	}
	seq, err = strconv.Atoi(rowID[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in row ID %q: %w", rowID, err)
	}
	batchID = rowID[:i]
	if _, _, err := ParseBatchID(batchID); err != nil {
		return "", 0, err
	}
	return batchID, seq, nil
}

// BatchOf returns the batch ID a row ID belongs to, or "" if it is malformed.
// "imp-20250115-3f2a9c1e-0001" -> "imp-20250115-3f2a9c1e"
func BatchOf(rowID string) string {
	b, _, err := ParseRowID(rowID)
	if err != nil {
		return ""
	}
	return b
}

// NewPreviewID returns an opaque identifier for an uncommitted preview.
func NewPreviewID() string {
	return uuid.NewString()
}
