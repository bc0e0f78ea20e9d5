// internal/regmap/errors.go
package regmap

import "errors"

// Construction errors.
var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidVariable  = errors.New("invalid variable")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrOverlap          = errors.New("address overlap")
)

// Access errors.
var (
	ErrNotReadable = errors.New("not readable")
	ErrNotWritable = errors.New("not writable")
	ErrNoValue     = errors.New("no value")
	ErrNotFound    = errors.New("not found")
)

// ConfigError reports a construction-time failure at a device path.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "regmap: " + e.Err.Error()
	}
	return "regmap: " + e.Path + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }
