// Package thaiid reads the personal record of a Thai national ID card.
//
// The applet is selected once, then every field is read with a fixed
// proprietary READ BINARY. Two fields move between card revisions: the
// birth date is searched for inside a wider window, and the religion is
// tried at several offsets until a plausible text is found.
package thaiid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gregLibert/thai-id-reader/pkg/iso7816"
	"github.com/gregLibert/thai-id-reader/pkg/thaitext"
)

// ErrAppletNotSelected is returned when the card refused or failed the SELECT.
var ErrAppletNotSelected = errors.New("thai id applet not selected")

// Channel sends one logical command and returns its trace.
// *iso7816.Client implements it.
type Channel interface {
	Send(ctx context.Context, cmd *iso7816.CommandAPDU) (iso7816.Trace, error)
}

// Reader assembles a Record from a card.
type Reader struct {
	ch      Channel
	catalog Catalog
	logger  *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithCatalog overrides DefaultCatalog.
func WithCatalog(c Catalog) Option {
	return func(r *Reader) { r.catalog = c }
}

// WithLogger sets the logger used for per-field debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// NewReader creates a Reader over ch.
func NewReader(ch Channel, opts ...Option) *Reader {
	r := &Reader{ch: ch, catalog: DefaultCatalog()}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Read selects the applet and reads every field.
//
// A field answering with an error status is reported as Unavailable. Any
// transport fault aborts the whole record.
func (r *Reader) Read(ctx context.Context) (Record, error) {
	if err := r.selectApplet(ctx); err != nil {
		return Record{}, err
	}

	var (
		rec Record
		err error
	)

	if rec.CitizenID, err = r.readText(ctx, r.catalog.CitizenID, thaitext.DecodeASCII); err != nil {
		return Record{}, err
	}
	if rec.NameTH, err = r.readText(ctx, r.catalog.NameTH, thaitext.DecodeNative); err != nil {
		return Record{}, err
	}
	if rec.NameEN, err = r.readText(ctx, r.catalog.NameEN, thaitext.DecodeASCII); err != nil {
		return Record{}, err
	}

	if rec.BirthDate, err = ExtractBirthDate(ctx, r.ch, r.catalog.BirthWindow); err != nil {
		return Record{}, err
	}
	if rec.BirthDate.IsZero() {
		r.logger.Debug("no birth date in window", "field", r.catalog.BirthWindow)
	}

	gender, err := r.read(ctx, r.catalog.Gender)
	if err != nil {
		return Record{}, err
	}
	rec.Gender = ParseGender(gender)

	if rec.Religion, err = LocateReligion(ctx, r.ch, r.catalog.ReligionCandidates); err != nil {
		return Record{}, err
	}

	if rec.Address, err = r.readText(ctx, r.catalog.Address, thaitext.DecodeNative); err != nil {
		return Record{}, err
	}

	return rec, nil
}

func (r *Reader) selectApplet(ctx context.Context) error {
	trace, err := r.ch.Send(ctx, SelectCommand())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAppletNotSelected, err)
	}

	if res, rerr := iso7816.NewSelectResult(trace); rerr == nil {
		r.logger.Debug("select applet", "report", res.Describe())
	}

	if err := trace.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAppletNotSelected, err)
	}
	return nil
}

// read returns the payload of f, or nil when the card answered with an error status.
func (r *Reader) read(ctx context.Context, f Field) ([]byte, error) {
	trace, err := r.ch.Send(ctx, f.Command())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}

	r.logger.Debug("read field", "field", f, "trace", trace.Describe())

	if err := trace.Err(); err != nil {
		r.logger.Debug("field unavailable", "field", f, "err", err)
		return nil, nil
	}
	return trace.Payload(), nil
}

func (r *Reader) readText(ctx context.Context, f Field, decode func([]byte) string) (string, error) {
	payload, err := r.read(ctx, f)
	if err != nil {
		return "", err
	}

	if text := decode(payload); text != "" {
		return text, nil
	}
	return Unavailable, nil
}
