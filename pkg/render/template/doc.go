// Package template defines the seam the HTML renderers execute templates
// through. The pongo2 engine lives in the gotemplate subpackage.
package template
