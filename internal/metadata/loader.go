package metadata

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource []byte

// Reads a descriptor file. `.cue` files are evaluated as CUE, anything else
// is parsed as YAML (which includes JSON). Both are checked against the
// descriptor schema.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read descriptor file", Err: err}
	}

	if filepath.Ext(path) == ".cue" {
		return ParseCUE(path, data)
	}
	return ParseYAML(path, data)
}

// Parses a YAML descriptor. Unknown fields are rejected.
func ParseYAML(path string, data []byte) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse YAML", Err: err}
	}

	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}

	value := ctx.Encode(file)
	if err := validate(path, schema, value); err != nil {
		return nil, err
	}
	return &file, nil
}

// Parses a CUE descriptor. The file may use the schema's definitions
// loosely; it is unified with `#File` before decoding.
func ParseCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return nil, err
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueError(path, "failed to compile CUE", err)
	}
	if err := validate(path, schema, value); err != nil {
		return nil, err
	}

	var file File
	if err := schema.Unify(value).Decode(&file); err != nil {
		return nil, cueError(path, "failed to decode descriptor", err)
	}
	return &file, nil
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("descriptor schema is invalid: %w", err)
	}
	return schema.LookupPath(cue.ParsePath("#File")), nil
}

func validate(path string, schema cue.Value, value cue.Value) error {
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueError(path, "descriptor does not match schema", err)
	}
	return nil
}

// Converts a CUE error into a LoadError carrying the first error's position.
func cueError(path string, message string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: message, Err: err}
	}

	loadErr := &LoadError{Path: path, Message: message, Err: err}
	if positions := errors.Positions(errs[0]); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}
