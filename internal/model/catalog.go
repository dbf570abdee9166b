package model

// ModelInfo describes one supported classifier in the static catalog.
type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Performance string `json:"performance"`
	Speed       string `json:"speed"`
	Recommended bool   `json:"recommended"`
}
