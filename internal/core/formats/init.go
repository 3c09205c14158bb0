// Package formats registers the built-in institution descriptors with the
// core registry. Import it for its side effects.
package formats

// Each institution file uses init() to register its descriptor.
