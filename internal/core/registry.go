package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]Descriptor)
	registryMu sync.RWMutex
)

// Register adds a built-in descriptor to the registry.
// Panics if the descriptor is invalid or its code is already registered.
func Register(d Descriptor) {
	if err := Add(d); err != nil {
		panic(err)
	}
}

// Add validates d and adds it to the registry.
// Used for descriptors loaded at startup from configuration files.
func Add(d Descriptor) error {
	compiled, err := d.Compile()
	if err != nil {
		return err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	key := registryKey(compiled.Code)
	if _, exists := registry[key]; exists {
		return fmt.Errorf("format already registered: %s", compiled.Code)
	}
	registry[key] = compiled
	return nil
}

// Get returns a descriptor by institution code (case-insensitive).
// Returns false if not found.
func Get(code string) (Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	d, ok := registry[registryKey(code)]
	return d, ok
}

// Lookup is like Get but returns an UnknownFormatError when code is not registered.
func Lookup(code string) (Descriptor, error) {
	d, ok := Get(code)
	if !ok {
		return Descriptor{}, &UnknownFormatError{Code: code, Known: Codes()}
	}
	return d, nil
}

// All returns all registered descriptors sorted by code.
func All() []Descriptor {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})

	return result
}

// Codes returns all registered institution codes, sorted.
func Codes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	codes := make([]string, 0, len(registry))
	for _, d := range registry {
		codes = append(codes, d.Code)
	}
	sort.Strings(codes)
	return codes
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Unregister removes the format registered under code, reporting whether it
// was present.
func Unregister(code string) bool {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := registryKey(code)
	if _, ok := registry[key]; !ok {
		return false
	}
	delete(registry, key)
	return true
}

// Clear removes all registered formats.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Descriptor)
}

func registryKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
