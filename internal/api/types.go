// File path: internal/api/types.go
package api

type ingestStructuredRequest struct {
	Path     string `json:"path"`
	FullLoad bool   `json:"full_load"`
}

type promptRequest struct {
	Nome          string  `json:"nome"`
	Texto         string  `json:"texto"`
	Periodicidade *string `json:"periodicidade"`
}

type runPromptsRequest struct {
	Prompt string `json:"prompt"`
}

type chatRequest struct {
	Question string `json:"question"`
}
