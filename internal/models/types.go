package models

// RunStatus represents the current state of an ingestion run
type RunStatus string

const (
	StatusPending  RunStatus = "pending"
	StatusRunning  RunStatus = "running"
	StatusComplete RunStatus = "complete"
	StatusPartial  RunStatus = "partial"
	StatusFailed   RunStatus = "failed"
)

// Field names a countable per-host collection
type Field string

const (
	FieldAttacks         Field = "attacks"
	FieldBugs            Field = "bugs"
	FieldVulnerabilities Field = "vulnerabilities"
)

// SkipReason explains why a report file contributed nothing to the results
type SkipReason string

const (
	SkipScanFailed       SkipReason = "scan_failed"
	SkipUnusableFilename SkipReason = "unusable_filename"
	SkipOutOfScope       SkipReason = "out_of_scope"
	SkipUnreadable       SkipReason = "unreadable"
)
