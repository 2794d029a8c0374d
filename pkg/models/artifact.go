package models

import "time"

// MediaKind is the type of media an artifact holds
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindImage MediaKind = "image"
)

// Extension returns the file extension used for the kind
func (k MediaKind) Extension() string {
	if k == KindImage {
		return ".jpg"
	}
	return ".mp4"
}

// Artifact is a media file produced by a capture
type Artifact struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Kind      MediaKind `json:"kind"`
	Path      string    `json:"-"` // local file, internal only
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
