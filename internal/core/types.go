package core

import (
	"context"
	"errors"
	"time"
)

// MaxPrice is the plausibility ceiling for a product price. Prices above it
// are rejected as PRICE_OUT_OF_RANGE; the ceiling itself is accepted.
const MaxPrice = 1_000_000.0

// DefaultThreshold is the price a record must exceed to be reported as expensive.
const DefaultThreshold = 1000.0

// ErrInputUnreadable is returned when the input source cannot be opened or read.
// It is a run-level failure: no summary is produced.
var ErrInputUnreadable = errors.New("input unreadable")

// ErrNotFound is returned by a ProductStore when an id does not exist.
var ErrNotFound = errors.New("product not found")

// Record is a validated product. The only way to obtain one is NewRecord
// (or Validate), so a Record value always satisfies the domain rules.
type Record struct {
	name  string
	price float64
}

// Name returns the trimmed product name.
func (r Record) Name() string { return r.name }

// Price returns the product price.
func (r Record) Price() float64 { return r.price }

// RawLine is one unparsed input line. Number counts data lines only:
// the first line after the header is line 1.
type RawLine struct {
	Number int
	Text   string
}

// ReasonCode classifies why a line was rejected. The set is closed.
type ReasonCode string

const (
	ReasonInsufficientFields ReasonCode = "INSUFFICIENT_FIELDS"
	ReasonEmptyName          ReasonCode = "EMPTY_NAME"
	ReasonMalformedPrice     ReasonCode = "MALFORMED_PRICE"
	ReasonNegativePrice      ReasonCode = "NEGATIVE_PRICE"
	ReasonPriceOutOfRange    ReasonCode = "PRICE_OUT_OF_RANGE"
	ReasonEmptyLine          ReasonCode = "EMPTY_LINE"
	ReasonUnexpectedError    ReasonCode = "UNEXPECTED_ERROR"
)

// Rejection is a data line that did not produce a Record.
// Detail is for humans only; branch on Code.
type Rejection struct {
	Line   int
	Raw    string
	Code   ReasonCode
	Detail string
}

// BatchSummary holds the aggregate counts for one pipeline run.
type BatchSummary struct {
	TotalLines int `json:"totalLines"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
}

// SuccessRate returns accepted lines as a percentage of all data lines.
// An empty input yields 0.
func (s BatchSummary) SuccessRate() float64 {
	if s.TotalLines == 0 {
		return 0
	}
	return float64(s.Accepted) * 100 / float64(s.TotalLines)
}

// Batch is the complete outcome of one pipeline run, in input order.
type Batch struct {
	Accepted []Record
	Rejected []Rejection
	Summary  BatchSummary
}

// StoredProduct is a Record that has been written to a ProductStore.
type StoredProduct struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RunSummary is the persisted history entry for one file-to-file run.
type RunSummary struct {
	ID              string        `json:"id"`
	Input           string        `json:"input"`
	Output          string        `json:"output"`
	RejectLog       string        `json:"rejectLog"`
	Threshold       float64       `json:"threshold"`
	Summary         BatchSummary  `json:"summary"`
	Filtered        int           `json:"filtered"`
	Persisted       int           `json:"persisted"`
	PersistFailures int           `json:"persistFailures"`
	SinkFailures    int           `json:"sinkFailures"`
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"duration"`
}

// ProductStore is the persistence sink for validated records.
// Implementations must be safe for concurrent use.
type ProductStore interface {
	Save(ctx context.Context, rec Record) (StoredProduct, error)
	Update(ctx context.Context, id string, rec Record) (StoredProduct, error)
	Get(ctx context.Context, id string) (StoredProduct, error)
	List(ctx context.Context) ([]StoredProduct, error)
	Delete(ctx context.Context, id string) error
	SaveRun(ctx context.Context, run RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}
