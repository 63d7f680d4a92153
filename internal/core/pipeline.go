package core

// pipeline.go is the line-at-a-time ingestion loop.
//
// The loop has two kinds of failure. A problem with a single line (bad
// shape, bad value, or even a panic while handling it) becomes a Rejection
// and the loop moves on. A problem with the input stream itself ends the run
// with ErrInputUnreadable and no Batch.

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseFunc splits a raw line into fields.
type ParseFunc func(line string) []string

// ValidateFunc turns fields into a Record or a *ValidationError.
type ValidateFunc func(fields []string) (Record, error)

// Pipeline reads a header plus data lines and classifies every data line.
// The zero value uses SplitFields, Validate and slog.Default.
type Pipeline struct {
	Parse    ParseFunc
	Validate ValidateFunc
	Logger   *slog.Logger
}

// Run consumes in to the end. Accepted records and rejections are returned in
// input order; every rejection is also handed to sink as soon as it happens.
// The first line is a header and is never counted. A nil sink is allowed.
func (p *Pipeline) Run(in io.Reader, sink RejectionSink) (*Batch, error) {
	parse, validate, logger := p.Parse, p.Validate, p.Logger
	if parse == nil {
		parse = SplitFields
	}
	if validate == nil {
		validate = Validate
	}
	if logger == nil {
		logger = slog.Default()
	}

	lines := newLineReader(in)
	batch := &Batch{}

	reject := func(rej Rejection) {
		batch.Rejected = append(batch.Rejected, rej)
		batch.Summary.Rejected++
		if sink != nil {
			sink.Record(rej)
		}
		logger.Debug("line rejected", "line", rej.Line, "code", rej.Code, "detail", rej.Detail)
	}

	header := true
	number := 0
	for {
		text, ok, err := lines.next()
		if err != nil {
			return nil, fmt.Errorf("%w: read after data line %d: %w", ErrInputUnreadable, number, err)
		}
		if !ok {
			break
		}
		if header {
			header = false
			continue
		}

		number++
		batch.Summary.TotalLines++
		raw := RawLine{Number: number, Text: text}

		if strings.TrimSpace(raw.Text) == "" {
			reject(Rejection{Line: raw.Number, Raw: raw.Text, Code: ReasonEmptyLine, Detail: "Empty line"})
			continue
		}

		rec, rej := processLine(raw, parse, validate)
		if rej != nil {
			reject(*rej)
			continue
		}
		batch.Accepted = append(batch.Accepted, rec)
		batch.Summary.Accepted++
	}

	logger.Info("ingestion finished",
		"total_lines", batch.Summary.TotalLines,
		"accepted", batch.Summary.Accepted,
		"rejected", batch.Summary.Rejected,
	)
	return batch, nil
}

// processLine runs parse and validate for one line. A panic inside either is
// recovered here and becomes an UNEXPECTED_ERROR rejection.
func processLine(raw RawLine, parse ParseFunc, validate ValidateFunc) (rec Record, rej *Rejection) {
	defer func() {
		if r := recover(); r != nil {
			rec = Record{}
			rej = &Rejection{
				Line:   raw.Number,
				Raw:    raw.Text,
				Code:   ReasonUnexpectedError,
				Detail: fmt.Sprint(r),
			}
		}
	}()

	rec, err := validate(parse(raw.Text))
	if err == nil {
		return rec, nil
	}

	code, detail := classify(err)
	return Record{}, &Rejection{Line: raw.Number, Raw: raw.Text, Code: code, Detail: detail}
}

// classify maps a validation failure to a reason. Anything that is not a
// *ValidationError was not anticipated by the validator.
func classify(err error) (ReasonCode, string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code, verr.Detail
	}
	return ReasonUnexpectedError, err.Error()
}
