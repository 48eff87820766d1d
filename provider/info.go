package provider

// Info describes the provider to the shell.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Mode        string `json:"mode"`
}

const (
	defaultVersion = "0.1.0"
	// ModeAllAtOnce tells the shell that the provider serves its whole
	// dataset from one endpoint.
	ModeAllAtOnce = "ALL_AT_ONCE"
)
