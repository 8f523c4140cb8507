// Package brainstorm extracts the three candidate ideas from a model answer
// written as "Idee 1: ... Idee 2: ... Idee 3: ...".
package brainstorm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingMarker   = errors.New("marker missing")
	ErrDuplicateMarker = errors.New("marker repeated")
	ErrMarkerOrder     = errors.New("markers out of order")
	ErrEmptyIdea       = errors.New("idea is empty")
)

// Markers are the literal labels the model has to use, in order.
var Markers = [3]string{"Idee 1:", "Idee 2:", "Idee 3:"}

type Ideas [3]string

// FormatError reports which marker made the answer unusable.
type FormatError struct {
	Marker string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("brainstorm format: %v (%q)", e.Err, e.Marker)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Parse validates marker count and order before slicing. Text before the
// first marker is ignored; everything after the last marker is idea 3.
func Parse(text string) (Ideas, error) {
	var ideas Ideas
	var pos [3]int

	for i, m := range Markers {
		switch n := strings.Count(text, m); {
		case n == 0:
			return ideas, &FormatError{Marker: m, Err: ErrMissingMarker}
		case n > 1:
			return ideas, &FormatError{Marker: m, Err: ErrDuplicateMarker}
		}
		pos[i] = strings.Index(text, m)
		if i > 0 && pos[i] < pos[i-1] {
			return ideas, &FormatError{Marker: m, Err: ErrMarkerOrder}
		}
	}

	for i, m := range Markers {
		start := pos[i] + len(m)
		end := len(text)
		if i < len(Markers)-1 {
			end = pos[i+1]
		}
		idea := clean(text[start:end])
		if idea == "" {
			return Ideas{}, &FormatError{Marker: m, Err: ErrEmptyIdea}
		}
		ideas[i] = idea
	}
	return ideas, nil
}

// clean drops surrounding whitespace and markdown emphasis left around a marker.
func clean(s string) string {
	return strings.Trim(s, " \t\r\n*_")
}
