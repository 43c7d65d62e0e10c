// Package lookup is the REST client for the clinic's patient and record
// endpoints: ficha by RUT, record search, recepción and traspaso movements,
// and the service and professional pickers.
//
// Identical concurrent GETs share one request, every request waits on an
// optional rate limiter, and errors carry the endpoint's status and detail.
package lookup
