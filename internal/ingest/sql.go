package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

// SQL column defaults used when a location does not name them.
const (
	DefaultSQLTable      = "hsn_codes"
	DefaultSQLCodeColumn = "code"
	DefaultSQLDescColumn = "description"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLOptions names the table and columns holding reference rows.
type SQLOptions struct {
	Table      string
	CodeColumn string
	DescColumn string
}

func (o SQLOptions) withDefaults() SQLOptions {
	if o.Table == "" {
		o.Table = DefaultSQLTable
	}
	if o.CodeColumn == "" {
		o.CodeColumn = DefaultSQLCodeColumn
	}
	if o.DescColumn == "" {
		o.DescColumn = DefaultSQLDescColumn
	}
	return o
}

func (o SQLOptions) validate() error {
	for _, id := range []string{o.Table, o.CodeColumn, o.DescColumn} {
		if !identRe.MatchString(id) {
			return fmt.Errorf("invalid SQL identifier %q", id)
		}
	}
	return nil
}

// SQLSource reads reference rows from a database table.
type SQLSource struct {
	db          *sql.DB
	name        string
	opts        SQLOptions
	placeholder sq.PlaceholderFormat
	owned       bool
}

// OpenSQLSource opens driverName ("pgx" or "sqlite") at dsn. The returned
// source owns the connection pool; call Close when done.
func OpenSQLSource(driverName, dsn, display string, opts SQLOptions) (*SQLSource, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, driverName, err)
	}
	var placeholder sq.PlaceholderFormat = sq.Question
	if driverName == "pgx" {
		placeholder = sq.Dollar
	}
	src, err := NewSQLSource(db, display, placeholder, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	src.owned = true
	return src, nil
}

// NewSQLSource wraps an existing pool. The caller keeps ownership of db.
func NewSQLSource(db *sql.DB, display string, placeholder sq.PlaceholderFormat, opts SQLOptions) (*SQLSource, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &SQLSource{db: db, name: display, opts: opts, placeholder: placeholder}, nil
}

func (s *SQLSource) String() string { return s.name }

// Query returns the SELECT statement Fetch runs.
func (s *SQLSource) Query() (string, []any, error) {
	return sq.Select(s.opts.CodeColumn, s.opts.DescColumn).
		From(s.opts.Table).
		Where(sq.NotEq{s.opts.CodeColumn: nil}).
		OrderBy(s.opts.CodeColumn).
		PlaceholderFormat(s.placeholder).
		ToSql()
}

// Fetch reads every row. The first row of the dataset holds the column
// names and the assignment is fixed, so no inference runs.
func (s *SQLSource) Fetch(ctx context.Context) (*Dataset, error) {
	query, args, err := s.Query()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrSourceUnavailable, s.opts.Table, err)
	}
	defer rows.Close()

	out := [][]string{{s.opts.CodeColumn, s.opts.DescColumn}}
	for rows.Next() {
		var code, desc sql.NullString
		if err := rows.Scan(&code, &desc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.opts.Table, err)
		}
		out = append(out, []string{code.String, desc.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.opts.Table, err)
	}
	if len(out) == 1 {
		return nil, fmt.Errorf("%w: table %s has no rows", ErrEmptyFile, s.opts.Table)
	}

	return &Dataset{
		Origin:   s.name,
		Format:   FormatSQL,
		Encoding: EncodingUTF8,
		Rows:     out,
		Assignment: &ColumnAssignment{
			Code:              0,
			CodeName:          s.opts.CodeColumn,
			CodeMethod:        ByName,
			Description:       1,
			DescriptionName:   s.opts.DescColumn,
			DescriptionMethod: ByName,
		},
	}, nil
}

// Close releases the pool if the source opened it.
func (s *SQLSource) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
