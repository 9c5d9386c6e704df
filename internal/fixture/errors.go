package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
)

// Kind classifies why a fixture could not be loaded.
type Kind int

const (
	// KindNotFound means the file does not exist (or the server answered 404).
	KindNotFound Kind = iota
	// KindStatus means the server answered with another non-2xx status.
	KindStatus
	// KindRead means the transport or filesystem failed mid-read.
	KindRead
	// KindParse means the bytes are not a valid fixture.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindStatus:
		return "status"
	case KindRead:
		return "read"
	case KindParse:
		return "parse"
	}
	return "unknown"
}

var (
	errInvalidJSON = errors.New("invalid JSON")
	errUnknownLens = errors.New("unknown lens")
)

// LoadError is the only failure of the data layer. It is terminal for the
// view that requested the fixture; nothing retries it.
type LoadError struct {
	File string
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StatusError is returned by HTTPSource for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// classify wraps a source error into a LoadError.
func classify(name string, err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	var se *StatusError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{File: name, Kind: KindNotFound, Err: err}
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return &LoadError{File: name, Kind: KindNotFound, Err: err}
	case errors.As(err, &se):
		return &LoadError{File: name, Kind: KindStatus, Err: err}
	}
	return &LoadError{File: name, Kind: KindRead, Err: err}
}
