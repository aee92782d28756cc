package hashes

import (
	"crypto/sha256"
	"hash"

	"github.com/pkg/errors"
)

// DoubleHashWriter is used to incrementally double-sha256 data without
// concatenating all of it into a single buffer.
// DoubleHashWriter.Write(slice) then Finalize == sha256(sha256(slice)).
type DoubleHashWriter struct {
	inner hash.Hash
}

// NewDoubleHashWriter returns a new DoubleHashWriter
func NewDoubleHashWriter() *DoubleHashWriter {
	return &DoubleHashWriter{sha256.New()}
}

// Write will always return (len(p), nil)
func (h *DoubleHashWriter) Write(p []byte) (n int, err error) {
	return h.inner.Write(p)
}

// InfallibleWrite is just like Write but doesn't return anything
func (h *DoubleHashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash
	// interface contract.
	_, err := h.inner.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting double hash
func (h *DoubleHashWriter) Finalize() *Hash {
	firstHashInTheSum := h.inner.Sum(nil)
	sum := sha256.Sum256(firstHashInTheSum)
	return NewHashFromByteArray(&sum)
}
