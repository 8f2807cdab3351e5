// Package ids provides the opaque entity identifier used throughout the
// graph storage and execution layers.
//
// An ElementId is a 96-bit value generated uniformly at random when a
// node or edge is created. Ids are never reused; two entities with
// distinct lifetimes may share an id only by random collision, which is
// treated as negligible rather than prevented.
package ids

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// Size is the length of an ElementId in bytes.
const Size = 12

// ErrInvalidLength is returned when decoding a byte slice of the wrong
// length into an ElementId.
var ErrInvalidLength = errors.New("ids: element id must be exactly 12 bytes")

// ElementId is a 96-bit opaque identifier for a node or an edge.
//
// ElementId is comparable and usable as a map key directly, which the
// storage and execution layers rely on heavily for visited-sets and
// assignment rows.
type ElementId [Size]byte

// New generates a fresh ElementId using a cryptographically secure
// random source.
//
// Example:
//
//	id, err := ids.New()
//	if err != nil {
//		return err
//	}
//	node := &graph.Node{ID: id}
func New() (ElementId, error) {
	var id ElementId
	if _, err := rand.Read(id[:]); err != nil {
		return ElementId{}, fmt.Errorf("generating element id: %w", err)
	}
	return id, nil
}

// FromBytes decodes a 12-byte big-endian buffer into an ElementId.
//
// Returns ErrInvalidLength if b is not exactly Size bytes.
func FromBytes(b []byte) (ElementId, error) {
	var id ElementId
	if len(b) != Size {
		return id, ErrInvalidLength
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns the 12 big-endian bytes of the id. The returned slice is
// a fresh copy; mutating it does not affect id.
func (id ElementId) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}

// IsZero reports whether id is the all-zero value, used as a sentinel
// for "no id" in places that cannot use a pointer or an extra bool.
func (id ElementId) IsZero() bool {
	return id == ElementId{}
}

// String renders the id as a 16-character base64url string (no padding),
// matching spec.md's display form for an ElementId.
func (id ElementId) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// Parse decodes a 16-character base64url string produced by String back
// into an ElementId.
func Parse(s string) (ElementId, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return ElementId{}, fmt.Errorf("parsing element id %q: %w", s, err)
	}
	return FromBytes(b)
}
