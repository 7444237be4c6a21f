// Package derive holds the pure, synchronous functions between the
// repository and the presentation layer: countdown formatting, distance and
// viewport math, stop-marker jitter, pattern direction inference, and trip
// sequence lookups. Nothing here performs I/O or holds state; every function
// that depends on the clock takes the current time as an argument.
package derive
