package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidData   = errors.New("network: invalid data")
	ErrUnknownFormat = errors.New("network: unknown file format")
)

func ParseJSON(b []byte) (*Data, error) {
	d := NewData("")
	if err := json.Unmarshal(b, d); err != nil {
		return nil, fmt.Errorf("%w: decoding json: %v", ErrInvalidData, err)
	}
	return d, nil
}

// JSON encodes the case indented, the way it is written to disk.
func (d *Data) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encoding json: %v", ErrInvalidData, err)
	}
	return b, nil
}

func ParseYAML(b []byte) (*Data, error) {
	d := NewData("")
	if err := yaml.Unmarshal(b, d); err != nil {
		return nil, fmt.Errorf("%w: decoding yaml: %v", ErrInvalidData, err)
	}
	return d, nil
}

func (d *Data) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("%w: encoding yaml: %v", ErrInvalidData, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: encoding yaml: %v", ErrInvalidData, err)
	}
	return buf.Bytes(), nil
}

// Load reads a case file, picking the codec from the extension
// (.json, .yaml or .yml).
func Load(path string) (*Data, error) {
	parse, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading case file: %w", err)
	}
	d, err := parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *Data) Save(path string) error {
	var (
		b   []byte
		err error
	)
	switch format(path) {
	case "json":
		b, err = d.JSON()
	case "yaml":
		b, err = d.YAML()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing case file: %w", err)
	}
	return nil
}

func parserFor(path string) (func([]byte) (*Data, error), error) {
	switch format(path) {
	case "json":
		return ParseJSON, nil
	case "yaml":
		return ParseYAML, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}
