// Package ident generates record identifiers.
//
// An identifier is the creation time in Unix milliseconds followed by a short
// random suffix, optionally prefixed: "1736160000000-k3x9q2a" or
// "water-1736160000000-k3x9q2a". The timestamp keeps ids roughly sortable and
// readable in the JSON files; the suffix separates ids minted in the same
// millisecond.
package ident

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 7

// Generator mints identifiers. The zero value is not usable; use WithClock.
type Generator struct {
	now func() time.Time
}

// WithClock returns a Generator using now as its time source.
func WithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh identifier without prefix.
func (g *Generator) Next() string {
	return strconv.FormatInt(g.now().UnixMilli(), 10) + "-" + suffix()
}

// NextWithPrefix returns a fresh identifier of the form "<prefix>-<ms>-<suffix>".
func (g *Generator) NextWithPrefix(prefix string) string {
	return prefix + "-" + g.Next()
}

// suffix draws its randomness from a v4 UUID and renders it in base 36.
func suffix() string {
	u := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s[len(s)-suffixLen:]
}
