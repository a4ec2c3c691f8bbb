// Package internal holds small helpers shared by the root engine and its
// subpackages: random credential material and identifiers.
package internal
