package models

// Preset is a position stored on the camera
type Preset struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Enable int    `json:"enable"`
}
