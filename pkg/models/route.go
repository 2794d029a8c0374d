package models

import "time"

// Route is a named, ordered list of camera presets
type Route struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Presets     []int  `json:"presets" mapstructure:"presets"`
}

// Duration returns the scripted time of the route for a given settle duration
func (r Route) Duration(settle time.Duration) time.Duration {
	return settle * time.Duration(len(r.Presets))
}
