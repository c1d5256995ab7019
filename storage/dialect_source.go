package storage

import (
	"bytes"
	"io"
	"text/template"

	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DialectSource is a migration source driver that renders each migration body as a
// Go template before handing it to the migrator, so a single migration directory can
// carry both MySQL and SQLite SQL:
//
//	CREATE INDEX `visible_index` ON `job_queue_entry` (`status`, `visibleAt`);
//	{{if eq .Dialect "mysql"}}
//	DROP INDEX `old_index` ON `job_queue_entry`;
//	{{else}}
//	DROP INDEX `old_index`;
//	{{end}}
//
// SQL outside template blocks runs on every dialect.
type DialectSource struct {
	wrapped source.Driver
	dialect string
}

// TemplateData is the render context for each migration body
type TemplateData struct {
	Dialect string
}

// NewDialectSource opens the file source at fileURL ("file://path/to/migrations")
// and wraps it for the given dialect, "mysql" or "sqlite3"
func NewDialectSource(fileURL string, dialect string) (*DialectSource, error) {
	wrapped, err := source.Open(fileURL)
	if err != nil {
		return nil, err
	}
	return &DialectSource{wrapped: wrapped, dialect: dialect}, nil
}

// Open satisfies source.Driver; initialization goes through NewDialectSource instead
func (d *DialectSource) Open(url string) (source.Driver, error) {
	return nil, nil
}

// Close closes the wrapped source
func (d *DialectSource) Close() error {
	return d.wrapped.Close()
}

// First returns the first migration version of the wrapped source
func (d *DialectSource) First() (version uint, err error) {
	return d.wrapped.First()
}

// Prev returns the version preceding the given one
func (d *DialectSource) Prev(version uint) (prevVersion uint, err error) {
	return d.wrapped.Prev(version)
}

// Next returns the version following the given one
func (d *DialectSource) Next(version uint) (nextVersion uint, err error) {
	return d.wrapped.Next(version)
}

// ReadUp returns the rendered UP migration body
func (d *DialectSource) ReadUp(version uint) (io.ReadCloser, string, error) {
	r, identifier, err := d.wrapped.ReadUp(version)
	if err != nil {
		return nil, "", err
	}
	return d.render(r, identifier)
}

// ReadDown returns the rendered DOWN migration body
func (d *DialectSource) ReadDown(version uint) (io.ReadCloser, string, error) {
	r, identifier, err := d.wrapped.ReadDown(version)
	if err != nil {
		return nil, "", err
	}
	return d.render(r, identifier)
}

func (d *DialectSource) render(r io.ReadCloser, identifier string) (io.ReadCloser, string, error) {
	content, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return nil, "", err
	}
	// bodies without template directives pass through untouched
	if !bytes.Contains(content, []byte("{{")) {
		return io.NopCloser(bytes.NewReader(content)), identifier, nil
	}
	tmpl, err := template.New("migration").Parse(string(content))
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, TemplateData{Dialect: d.dialect}); err != nil {
		return nil, "", err
	}
	return io.NopCloser(&buf), identifier, nil
}
