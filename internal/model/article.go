package model

import "time"

// Article data model. An article belongs to exactly one User, its author,
// and is either a draft or published.
type Article struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"userId" gorm:"not null;index"` // the author
	User        *User      `json:"-" validate:"-"`
	Title       string     `json:"title" gorm:"type:varchar(100);not null" validate:"notblank,min=5,max=100"`
	Content     string     `json:"content" gorm:"type:text;not null" validate:"notblank,min=10,max=5000"`
	Published   bool       `json:"published" gorm:"not null;default:false;index"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsDraft reports whether the article is not published.
func (a *Article) IsDraft() bool {
	return !a.Published
}
