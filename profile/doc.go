// Package profile builds researcher expertise profiles from a table.
//
// A Profile is built once per table load and embedding model, and is
// immutable afterwards: every accessor returns data that callers must not
// modify, and concurrent readers need no locking. Reloading builds a new
// Profile.
//
// The expertise matrix has one row per researcher and one column per topic,
// both sorted ascending. A cell holds the mean percentage the researcher
// declared for the topic divided by 100, or 0 when absent.
package profile
