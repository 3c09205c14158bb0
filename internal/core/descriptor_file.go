package core

// descriptor_file.go loads custom format descriptors from YAML:
//
//	formats:
//	  - code: KBANK
//	    description: Kasikornbank, Thailand
//	    columns:
//	      Date: [date, "transaction date"]
//	      Payee: [details]
//	      Outflow: [withdrawal]
//	      Inflow: [deposit]
//	    date_pattern: '(\d+)/(\d+)/(\d+)'
//	    date_replacement: '\2/\1/\3'
//	    decimal_style: PERIOD
//	    date_separator: SLASH
//
// Unknown fields are rejected.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type descriptorFileYAML struct {
	Formats []descriptorYAML `yaml:"formats"`
}

type descriptorYAML struct {
	Code            string              `yaml:"code"`
	Description     string              `yaml:"description"`
	Columns         map[string][]string `yaml:"columns"`
	DatePattern     string              `yaml:"date_pattern"`
	DateReplacement string              `yaml:"date_replacement"`
	DecimalStyle    string              `yaml:"decimal_style"`
	DateSeparator   string              `yaml:"date_separator"`
}

// ParseDescriptors decodes and compiles every descriptor in a YAML document.
// It does not touch the registry.
func ParseDescriptors(r io.Reader) ([]Descriptor, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file descriptorFileYAML
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, WithCode("FMT002", fmt.Errorf("invalid format definition: %w", err))
	}

	descriptors := make([]Descriptor, 0, len(file.Formats))
	seen := make(map[string]bool)
	for i, f := range file.Formats {
		d, err := f.toDescriptor()
		if err != nil {
			return nil, WithCode("FMT002", fmt.Errorf("invalid format definition (entry %d): %w", i+1, err))
		}
		key := registryKey(d.Code)
		if seen[key] {
			return nil, WithCode("FMT002", fmt.Errorf("invalid format definition (entry %d): duplicate code %s", i+1, d.Code))
		}
		seen[key] = true
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func (f descriptorYAML) toDescriptor() (Descriptor, error) {
	d := Descriptor{
		Code:            f.Code,
		Description:     f.Description,
		DatePattern:     f.DatePattern,
		DateReplacement: f.DateReplacement,
		DecimalStyle:    DecimalStyle(strings.ToUpper(strings.TrimSpace(f.DecimalStyle))),
		DateSeparator:   DateSeparator(strings.ToUpper(strings.TrimSpace(f.DateSeparator))),
	}

	// Canonical order keeps the result independent of map iteration.
	used := 0
	for _, col := range CanonicalColumns {
		aliases, ok := lookupColumn(f.Columns, col)
		if !ok {
			continue
		}
		used++
		d.Columns = append(d.Columns, ColumnMapping{Canonical: col, Aliases: aliases})
	}
	if used != len(f.Columns) {
		for name := range f.Columns {
			if !IsCanonical(canonicalName(name)) {
				return Descriptor{}, fmt.Errorf("format %s: %q is not a canonical column", f.Code, name)
			}
		}
		return Descriptor{}, fmt.Errorf("format %s: canonical column listed twice", f.Code)
	}

	return d.Compile()
}

// lookupColumn finds a canonical column in the YAML map, ignoring case.
func lookupColumn(columns map[string][]string, canonical string) ([]string, bool) {
	for name, aliases := range columns {
		if canonicalName(name) == canonical {
			return aliases, true
		}
	}
	return nil, false
}

// canonicalName maps "outflow" or " OUTFLOW " to "Outflow". Unknown names
// are returned trimmed.
func canonicalName(name string) string {
	key := HeaderKey(name)
	for _, c := range CanonicalColumns {
		if HeaderKey(c) == key {
			return c
		}
	}
	return strings.TrimSpace(name)
}

// LoadDescriptorFile parses path and adds every descriptor to the registry.
// A code that is already registered, or that equals one of reserved
// (ignoring case), is an error. Nothing is registered when any code is
// reserved. Returns the codes added.
func LoadDescriptorFile(path string, reserved ...string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formats file: %w", err)
	}

	descriptors, err := ParseDescriptors(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, d := range descriptors {
		for _, name := range reserved {
			if registryKey(d.Code) == registryKey(name) {
				return nil, WithCode("FMT002", fmt.Errorf("%s: invalid format definition: code %s is reserved", path, d.Code))
			}
		}
	}

	codes := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		if err := Add(d); err != nil {
			return codes, WithCode("FMT002", fmt.Errorf("%s: invalid format definition: %w", path, err))
		}
		codes = append(codes, d.Code)
	}
	return codes, nil
}
