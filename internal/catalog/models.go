package catalog

import "time"

// UpsertAction reports what an upsert did to the catalog.
type UpsertAction string

const (
	ActionInserted UpsertAction = "inserted"
	ActionUpdated  UpsertAction = "updated"
)

// Link is a labelled URL attached to a book (store page, preview, ...).
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Book is a catalog record keyed by its canonical ISBN-13.
type Book struct {
	ISBN13        string
	Title         string
	Authors       []string
	Publisher     string
	PublishedDate string
	Description   string
	CoverURL      string
	Links         []Link
	Source        string
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
	// LastDeliveredAt predates the per-channel ledger. It is still written
	// on delivery for older tooling but never consulted for selection.
	LastDeliveredAt *time.Time
}

// BookInput carries the fields a collector can provide for an upsert.
type BookInput struct {
	ISBN13        string
	Title         string
	Authors       []string
	Publisher     string
	PublishedDate string
	Description   string
	CoverURL      string
	Links         []Link
	Source        string
}

// Delivery is one append-only audit batch: the full identifier list handed
// to a channel at one moment in time.
type Delivery struct {
	ID          int64
	Channel     string
	DeliveredAt time.Time
	ISBNs       []string
}

// DeliveryStats summarizes ledger coverage of the catalog for one channel.
type DeliveryStats struct {
	Total       int
	Delivered   int
	Undelivered int
}

// ResetOptions scopes a ledger reset. Zero values mean "no filter".
type ResetOptions struct {
	Channel   string
	SinceDays int
}

// Cursor is the persisted pagination position for one (channel, query set)
// pair. StartIndex never decreases while the cursor is live, and Exhausted
// stays set until the cursor is explicitly reset.
type Cursor struct {
	Channel      string
	QuerySetHash string
	StartIndex   int
	Exhausted    bool
	UpdatedAt    time.Time
}

// JobState tracks when a channel last ran and last succeeded.
type JobState struct {
	Channel       string
	LastRunAt     *time.Time
	LastSuccessAt *time.Time
}

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalBooks       int
	Error            string
}
