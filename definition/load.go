package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML document. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("yaml: empty document: %w", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return &def, nil
}

// ParseJSON decodes a JSON document. Unknown fields are rejected.
func ParseJSON(data []byte) (*Definition, error) {
	var def Definition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &def, nil
}

// ParseCUE evaluates a CUE document. The definition is read from a
// top-level "machine" field when present, otherwise from the root value.
// The value must be concrete.
func ParseCUE(data []byte) (*Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}
	if m := v.LookupPath(cue.ParsePath("machine")); m.Exists() {
		v = m
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating CUE: %w", err)
	}

	var def Definition
	if err := v.Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding CUE: %w", err)
	}
	return &def, nil
}

// LoadFile reads a definition, choosing the decoder by file extension.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var def *Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		def, err = Parse(data)
	case ".json":
		def, err = ParseJSON(data)
	case ".cue":
		def, err = ParseCUE(data)
	default:
		return nil, fmt.Errorf("%s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Load reads and compiles a definition file.
func Load(path string, reg *Registry) (*Machine, error) {
	def, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Compile(def, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
