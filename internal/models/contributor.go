package models

// Contributor is an author whose commits own lines of an entity.
type Contributor struct {
	Name         string   `json:"name"`
	Email        *string  `json:"email"`
	CommitHashes []string `json:"commit_hashes"`
}
