package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Resource is raw media content on its way to or from object storage.
type Resource struct {
	Checksum    string
	Content     []byte
	ContentType string
	Name        string
}

// NewResource wraps content and computes its SHA-256 checksum.
func NewResource(content []byte, contentType, name string) Resource {
	sum := sha256.Sum256(content)
	return Resource{
		Checksum:    hex.EncodeToString(sum[:]),
		Content:     content,
		ContentType: contentType,
		Name:        name,
	}
}
