package models

import "time"

// Post represents a forum post. Posts are immutable once stored.
type Post struct {
	ID        uint64    `json:"id"`
	User      string    `json:"user"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a post. Seq orders the comments of a post.
type Comment struct {
	PostID    uint64    `json:"post_id"`
	Seq       uint64    `json:"seq"`
	User      string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FrontPageEntry is the part of a post displayed on the front page.
type FrontPageEntry struct {
	ID        uint64    `json:"id"`
	User      string    `json:"user"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// PostDetail is a post together with its most recent comments, oldest first.
type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

// Entry returns the front page projection of the post.
func (p *Post) Entry() FrontPageEntry {
	return FrontPageEntry{
		ID:        p.ID,
		User:      p.User,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
	}
}
