// Package sanitizer provides input normalization functions for availability
// data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Labels (specialization, location type): lowercase after trimming
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
