// ABOUTME: Audio decoder package for turning PCM bytes into normalized samples
// ABOUTME: Inverse of the encode package
// Package decode converts signed little-endian PCM back into normalized
// samples.
package decode
