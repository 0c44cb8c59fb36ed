// Package model defines the core data types shared by the dashboard catalog.
package model

import "strings"

// Status is the normalized lifecycle bucket of a system.
type Status string

const (
	// StatusComplete covers the raw sheet values "Complete" and "Completed".
	StatusComplete Status = "complete"
	// StatusRunning covers the raw sheet values "Running" and "Pending".
	StatusRunning Status = "running"
	// StatusUnknown is any other value, including blanks and placeholders.
	StatusUnknown Status = "unknown"
)

// ParseStatus maps a raw status cell onto a Status bucket.
// Matching ignores surrounding whitespace and case.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "complete", "completed":
		return StatusComplete
	case "running", "pending":
		return StatusRunning
	default:
		return StatusUnknown
	}
}

// SystemRecord is one row of the remote systems table.
type SystemRecord struct {
	// Ordinal is the 1-based row position within a single fetch.
	Ordinal   int    `json:"ordinal"`
	Name      string `json:"name"`
	AppLink   string `json:"app_link"`
	SheetLink string `json:"sheet_link"`
	// RawStatus keeps the cell as it appeared in the sheet.
	RawStatus string `json:"raw_status"`
	Status    Status `json:"status"`
	Remarks   string `json:"remarks,omitempty"`
}

// Catalog is the status partition of a projected fetch.
type Catalog struct {
	Complete []SystemRecord `json:"complete"`
	Running  []SystemRecord `json:"running"`
}

// EmptyCatalog returns a catalog with non-nil, empty buckets.
func EmptyCatalog() Catalog {
	return Catalog{Complete: []SystemRecord{}, Running: []SystemRecord{}}
}

// Add places a record in the bucket matching its status.
// Records with StatusUnknown are dropped.
func (c *Catalog) Add(rec SystemRecord) {
	switch rec.Status {
	case StatusComplete:
		c.Complete = append(c.Complete, rec)
	case StatusRunning:
		c.Running = append(c.Running, rec)
	case StatusUnknown:
	}
}

// Bucket returns the records for a status; unknown yields nil.
func (c Catalog) Bucket(s Status) []SystemRecord {
	switch s {
	case StatusComplete:
		return c.Complete
	case StatusRunning:
		return c.Running
	default:
		return nil
	}
}

// Len returns the total number of records across both buckets.
func (c Catalog) Len() int { return len(c.Complete) + len(c.Running) }
