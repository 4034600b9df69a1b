package models

// Operator is a back-office account with read access to stored submissions.
// There is no public registration: the single account is seeded at startup
// from the environment.
type Operator struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"createdAt"`
}
