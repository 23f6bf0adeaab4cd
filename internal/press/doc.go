// Package press finds cylinder and lane layouts for labels on a rotary or
// semirotary press.
//
// Solve picks the tooth count and number of repeats around the cylinder so
// that the gap between consecutive labels stays inside the mechanical window.
// LabelsAcross and MaterialWidth arrange labels across the web.
package press
