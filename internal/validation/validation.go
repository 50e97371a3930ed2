// Package validation binds request input and turns validator failures into
// field-level HTTP errors.
package validation
