package models

import (
	"time"
)

// HashAlgorithm names the digest used for content comparison
type HashAlgorithm string

const (
	// HashSHA1 is the default digest
	HashSHA1 HashAlgorithm = "sha1"
	// HashSHA256 trades speed for a wider digest
	HashSHA256 HashAlgorithm = "sha256"
	// HashMD5 is the fastest of the supported digests
	HashMD5 HashAlgorithm = "md5"
)

// Valid reports whether h is a supported algorithm
func (h HashAlgorithm) Valid() bool {
	switch h {
	case HashSHA1, HashSHA256, HashMD5:
		return true
	}
	return false
}

// SyncOperation represents a sync operation configuration
type SyncOperation struct {
	ID             string
	SourcePath     string
	DestPath       string
	IgnoreFile     string
	IgnorePatterns []string
	HashAlgorithm  HashAlgorithm
	DryRun         bool
	BufferSize     int
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// Validate checks if the operation configuration is valid
func (op *SyncOperation) Validate() error {
	if op.SourcePath == "" {
		return &ValidationError{Field: "SourcePath", Message: "source path is required"}
	}
	if op.DestPath == "" {
		return &ValidationError{Field: "DestPath", Message: "destination path is required"}
	}
	if !op.HashAlgorithm.Valid() {
		return &ValidationError{Field: "HashAlgorithm", Message: "unsupported hash algorithm: " + string(op.HashAlgorithm)}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
