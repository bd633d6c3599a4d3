// Package stt provides speech-to-text transcription for recorded notes.
package stt

import "context"

// Provider is the interface for STT implementations.
type Provider interface {
	// Transcribe converts an audio file to text.
	Transcribe(ctx context.Context, filePath string) (string, error)

	// Name returns the provider name (e.g., "whisper")
	Name() string
}
