// Package template defines the engine-agnostic rendering contract. The pongo
// subpackage provides the default implementation backed by pongo2.
package template
