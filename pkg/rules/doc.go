// Package rules computes which patient form fields are enabled, disabled and
// required from the recien_nacido, extranjero, fallecido and sin_telefono
// flags, and runs the cross-field checks that gate a submission.
//
// The decision table lives in rules.yaml and is compiled once: every flag
// assignment of every group resolves to exactly one row, so Compute is a total
// lookup that never fails. Applying the result to a form is the job of
// package form.
package rules
