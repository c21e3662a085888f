// Package registry maps authored step and condition kinds to their factories.
package registry
