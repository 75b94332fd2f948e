// Package errors provides coded, user-facing errors for the ripple CLI and
// host layers.
//
// Each error carries a stable code (e.g. "E040"), a category, and optional
// detail, suggestion, and documentation link. Codes are registered in
// registry.go; New looks a code up and returns a populated error that callers
// refine with the With* builders:
//
//	return errors.New("E041").
//		WithDetail("ripple.json line 7: unexpected token").
//		WithSuggestion("Check that ripple.json is valid JSON")
//
// Format renders the error for terminals; PrintError writes it to stderr.
// Engine-internal failures do not use this package: the engine reports
// through its graph error reporter.
package errors
