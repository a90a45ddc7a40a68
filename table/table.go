// Package table loads expertise tables from delimited text.
//
// The loader only turns bytes into a core.Table. It does not check the
// schema: a table missing required columns is returned with its header and
// no records, and the profile builder reports the missing columns.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/poiesic/fingerprint/core"
	"golang.org/x/text/unicode/norm"
)

const bom = "\ufeff"

// Option configures a read.
type Option func(*reader)

// WithComma sets the field delimiter. The default is ','.
func WithComma(comma rune) Option {
	return func(r *reader) {
		r.comma = comma
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *reader) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

type reader struct {
	comma  rune
	logger *slog.Logger
}

// LoadFile reads the table at path. Files with a .tsv extension are read
// tab-delimited.
func LoadFile(path string, opts ...Option) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts = append([]Option{WithComma('\t')}, opts...)
	}
	t, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// ReadCSV reads an expertise table. Header cells are trimmed and unknown
// columns ignored. Text cells are NFKC-normalized and trimmed. Rows with a
// blank researcher, topic or percentage are skipped. A percentage that is
// not a number in [0, 100] fails the read with an error naming the line.
func ReadCSV(r io.Reader, opts ...Option) (*core.Table, error) {
	cfg := &reader{comma: ',', logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger.With("component", "table-loader")

	cr := csv.NewReader(r)
	cr.Comma = cfg.comma
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, cell := range header {
		name := NormalizeText(strings.TrimPrefix(cell, bom))
		columns[i] = name
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	t := &core.Table{Columns: columns}
	if core.CheckSchema(t) != nil {
		logger.Debug("table lacks required columns, skipping rows", "columns", columns)
		return t, nil
	}

	cell := func(row []string, col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return NormalizeText(row[i])
	}

	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		rec := core.Record{
			Researcher: cell(row, core.ColumnResearcher),
			Field:      cell(row, core.ColumnField),
			Topic:      cell(row, core.ColumnTopic),
		}
		pct := cell(row, core.ColumnPercentage)
		if rec.Researcher == "" || rec.Topic == "" || pct == "" {
			skipped++
			continue
		}

		rec.Percentage, err = strconv.ParseFloat(pct, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %q", line, ErrInvalidPercentage, pct)
		}
		if err := core.ValidateRecord(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Records = append(t.Records, rec)
	}

	if skipped > 0 {
		logger.Warn("skipped incomplete rows", "count", skipped)
	}
	logger.Debug("loaded table", "records", len(t.Records))
	return t, nil
}

// NormalizeText performs Unicode NFKC normalization, drops control
// characters and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, normed)
	return strings.TrimSpace(normed)
}
