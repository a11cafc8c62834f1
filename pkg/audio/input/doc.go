// ABOUTME: Audio input package for reading captured laser signals
// ABOUTME: Provides the Source interface with raw PCM, WAV, FLAC and MP3 readers
// Package input reads PCM from a container and normalizes it to [-1, 1].
//
// A Source yields blocks of interleaved samples holding whole sample vectors
// (one value per channel). Read returns io.EOF once the stream is exhausted.
package input
