package repository

// scanner abstracts *sql.Row and *sql.Rows so one scan function serves both.
type scanner interface {
	Scan(dest ...any) error
}
