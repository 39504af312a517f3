package models

// Follow is a directed edge: User receives Author's posts in the followed feed
type Follow struct {
	ID       int64  `json:"id" db:"id"`
	UserID   string `json:"user_id" db:"user_id"`
	AuthorID string `json:"author_id" db:"author_id"`
}
