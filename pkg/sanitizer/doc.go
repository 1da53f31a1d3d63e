// Package sanitizer provides input normalization for client- and
// staff-supplied data.
//
// All functions are idempotent - applying them twice produces the same
// result - and handle invalid input by returning empty values rather than
// errors.
//
// Normalization includes:
//   - Strings: collapse internal whitespace, trim leading/trailing spaces
//   - Names and service names: whitespace normalization only; service names
//     keep their exact casing because specialty matching is exact
//   - Phone numbers: convert to E.164 format (+[country][number])
package sanitizer
