package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Keys the tool reads or writes. Everything else in a record is carried
// through untouched.
const (
	keyName             = "name"
	keyFile             = "file"
	keyStartLine        = "startLine"
	keyEndLine          = "endLine"
	keyReferences       = "references"
	keyConstCategory    = "constCategory"
	keyConstType        = "constType"
	keyContributors     = "contributors"
	keyAttributionError = "attributionError"
)

// Entity is one structural code unit produced by an upstream analyzer.
//
// Known keys are decoded leniently: a value of the wrong type leaves the
// typed field at its zero value and is remembered, so one bad record never
// fails the whole input. The raw value is what gets written back.
type Entity struct {
	Name          string
	File          *string
	StartLine     *int
	EndLine       *int
	References    []string
	ConstCategory string
	ConstType     string

	Contributors     []Contributor
	AttributionError string

	attributed bool
	modified   bool
	fields     map[string]json.RawMessage
	invalid    map[string]error
}

func (e *Entity) present(key string) bool {
	_, ok := e.fields[key]
	return ok
}

// HasLineRange reports whether the record names a file and both line
// bounds. Only key presence counts; LineRange reports unusable values.
func (e *Entity) HasLineRange() bool {
	return (e.present(keyFile) || e.File != nil) &&
		(e.present(keyStartLine) || e.StartLine != nil) &&
		(e.present(keyEndLine) || e.EndLine != nil)
}

// LineRange returns the file and inclusive line bounds, or an error naming
// the first key whose value is null or of the wrong type.
func (e *Entity) LineRange() (file string, startLine, endLine int, err error) {
	for _, key := range []string{keyFile, keyStartLine, keyEndLine} {
		if ferr := e.invalid[key]; ferr != nil {
			return "", 0, 0, fmt.Errorf("field %q: %w", key, ferr)
		}
	}
	switch {
	case e.File == nil:
		return "", 0, 0, fmt.Errorf("field %q is null", keyFile)
	case e.StartLine == nil:
		return "", 0, 0, fmt.Errorf("field %q is null", keyStartLine)
	case e.EndLine == nil:
		return "", 0, 0, fmt.Errorf("field %q is null", keyEndLine)
	}
	return *e.File, *e.StartLine, *e.EndLine, nil
}

// Attributed reports whether the record carries a contributors list, either
// from this run or from the input.
func (e *Entity) Attributed() bool {
	return e.attributed
}

// SetContributors records a successful attribution.
func (e *Entity) SetContributors(contributors []Contributor) {
	if contributors == nil {
		contributors = []Contributor{}
	}
	e.Contributors = contributors
	e.AttributionError = ""
	e.attributed = true
	e.modified = true
}

// SetAttributionError records a failed attribution. The record still gets an
// empty contributors list so consumers can tell it was eligible.
func (e *Entity) SetAttributionError(err error) {
	e.Contributors = []Contributor{}
	e.AttributionError = err.Error()
	e.attributed = true
	e.modified = true
}

// ShortName is the last dot-separated segment of the entity name.
func (e *Entity) ShortName() string {
	if i := strings.LastIndex(e.Name, "."); i >= 0 {
		return e.Name[i+1:]
	}
	return e.Name
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("entity record must be an object: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("entity record must be an object")
	}

	*e = Entity{fields: fields}

	targets := []struct {
		key string
		dst any
	}{
		{keyName, &e.Name},
		{keyFile, &e.File},
		{keyStartLine, &e.StartLine},
		{keyEndLine, &e.EndLine},
		{keyReferences, &e.References},
		{keyConstCategory, &e.ConstCategory},
		{keyConstType, &e.ConstType},
		{keyContributors, &e.Contributors},
		{keyAttributionError, &e.AttributionError},
	}
	for _, t := range targets {
		raw, ok := fields[t.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			if e.invalid == nil {
				e.invalid = make(map[string]error)
			}
			e.invalid[t.key] = err
			clearField(t.dst)
		}
	}

	if _, ok := fields[keyContributors]; ok && e.invalid[keyContributors] == nil {
		e.attributed = true
		if e.Contributors == nil {
			e.Contributors = []Contributor{}
		}
	}
	return nil
}

// clearField drops whatever a failed decode left behind.
func clearField(dst any) {
	switch v := dst.(type) {
	case *string:
		*v = ""
	case **string:
		*v = nil
	case **int:
		*v = nil
	case *[]string:
		*v = nil
	case *[]Contributor:
		*v = nil
	}
}

// MarshalJSON writes input keys back exactly as they were read. Typed
// fields are only used for keys the input did not have, and for the
// attribution keys once this run has set them.
func (e *Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.fields)+2)
	for k, v := range e.fields {
		out[k] = v
	}

	put := func(key string, value any, set bool) {
		if !e.present(key) && set {
			out[key] = value
		}
	}
	put(keyName, e.Name, e.Name != "")
	put(keyFile, e.File, e.File != nil)
	put(keyStartLine, e.StartLine, e.StartLine != nil)
	put(keyEndLine, e.EndLine, e.EndLine != nil)
	put(keyReferences, e.References, e.References != nil)
	put(keyConstCategory, e.ConstCategory, e.ConstCategory != "")
	put(keyConstType, e.ConstType, e.ConstType != "")

	if e.modified || (e.attributed && !e.present(keyContributors)) {
		delete(out, keyAttributionError)
		contributors := e.Contributors
		if contributors == nil {
			contributors = []Contributor{}
		}
		out[keyContributors] = contributors
		if e.AttributionError != "" {
			out[keyAttributionError] = e.AttributionError
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
