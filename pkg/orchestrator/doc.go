// Package orchestrator wires the patient form pipeline: build the form from
// the field catalogue, bind a patient from the lookup backend, overlay
// submitted values, apply the field rules and hand the result to a renderer.
package orchestrator
