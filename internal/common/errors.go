// Package common defines sentinel errors shared by the listlens packages.
// Callers should match them with errors.Is.
package common

import "errors"

var (
	// Session and item lookups.
	ErrNotFound = errors.New("not found")

	// Image could not be decoded or encoded.
	ErrEncoding = errors.New("encoding failure")

	// Vision analysis failed; no session is created.
	ErrAnalysis = errors.New("analysis failure")

	// Categorization review failed; items are untouched.
	ErrReview = errors.New("review failure")

	// Gate errors, also surfaced as analysis failure kinds.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrQuotaExceeded   = errors.New("quota exceeded")

	// Reconciler errors.
	ErrStaleBatch     = errors.New("suggestions are stale")
	ErrNoPendingBatch = errors.New("no pending suggestions")
)
