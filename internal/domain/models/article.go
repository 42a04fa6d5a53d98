package models

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Content     string    `json:"content"`
	LinkPicture *string   `json:"link_picture"`
	Status      string    `json:"status"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      *User     `json:"author,omitempty"`
}

func (a Article) OwnerID() string {
	return a.UserID
}

// ArticlePatch holds the fields present in a partial update; nil means untouched.
type ArticlePatch struct {
	Title       *string
	Category    *string
	Content     *string
	LinkPicture *string
	Status      *string
}

func (p ArticlePatch) Apply(a *Article) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.LinkPicture != nil {
		a.LinkPicture = emptyToNil(p.LinkPicture)
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}
