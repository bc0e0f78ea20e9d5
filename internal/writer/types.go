// internal/writer/types.go
package writer

// Assignment is one field write by path.
type Assignment struct {
	Path  string
	Value string // display text, parsed per field
}

// Writer reads and writes register fields by path.
type Writer interface {
	Write(path, value string) error
	Apply(batch []Assignment) error
	Read(path string) (string, error)
}
