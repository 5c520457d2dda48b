// Package uid generates opaque string identifiers for correlation IDs and
// ticket IDs.
package uid

import "github.com/google/uuid"

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

// StringIDFunc adapts a plain function to StringID.
type StringIDFunc func() string

// Generate calls f.
func (f StringIDFunc) Generate() string {
	return f()
}

// UUID yields time-ordered UUIDv7 strings, so ticket IDs sort by issuance in
// the identity provider's replay table.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random UUIDv4 if the v7 clock sequence cannot be read.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
