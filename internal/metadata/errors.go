package metadata

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// Reported when a descriptor file cannot be read, parsed or does not match
// the descriptor schema.
type LoadError struct {
	Path    string
	Pos     token.Pos
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	message := e.Message
	if e.Err != nil {
		message = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), message)
	}
	return fmt.Sprintf("%s: %s", e.Path, message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Reported when a descriptor is well-formed but cannot be turned into
// bindings: an unknown category, a malformed override, a type without a
// marshaling rule. Generation never starts when one is raised.
type DescriptorError struct {
	Type    string
	Method  string
	Param   string
	Message string
	Err     error
}

func (e *DescriptorError) Error() string {
	var location strings.Builder
	location.WriteString(e.Type)
	if e.Method != "" {
		location.WriteString(".")
		location.WriteString(e.Method)
	}
	if e.Param != "" {
		fmt.Fprintf(&location, "(%s)", e.Param)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", location.String(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", location.String(), e.Message)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}
