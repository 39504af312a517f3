package models

// Page is one fixed-size slice of a feed plus paginator metadata
type Page struct {
	Items       []*Post `json:"items"`
	Number      int     `json:"page"`
	NumPages    int     `json:"num_pages"`
	Count       int     `json:"count"`
	PerPage     int     `json:"per_page"`
	HasNext     bool    `json:"has_next"`
	HasPrevious bool    `json:"has_previous"`
}

// Profile is an author's page of posts as seen by a viewer
type Profile struct {
	Author    *User `json:"author"`
	PostCount int   `json:"post_count"`
	Following bool  `json:"following"`
	Page      *Page `json:"page"`
}

// GroupFeed is a group's page of posts
type GroupFeed struct {
	Group *Group `json:"group"`
	Page  *Page  `json:"page"`
}
