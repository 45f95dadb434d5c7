package models

import (
	"time"
)

// Post is a published blog entry.
//
// Referential actions are explicit at the storage boundary: deleting the
// author cascades to the post, deleting the category nullifies CategoryID.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Excerpt       string    `gorm:"type:text" json:"excerpt,omitempty"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	AuthorID      uint      `gorm:"not null;index" json:"author_id"`
	Author        User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	CategoryID    *uint     `gorm:"index" json:"category_id,omitempty"`
	Category      *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Tags          []Tag     `gorm:"many2many:post_tags" json:"tags"`
	Comments      []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->" json:"liked"`
	// Bookmarked indicates whether the current requesting user bookmarked this post (computed)
	Bookmarked bool      `gorm:"->" json:"bookmarked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Like records a user liking a post. The composite unique index backs the
// atomic INSERT ... ON CONFLICT toggle.
type Like struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Like) TableName() string {
	return "likes"
}

// Bookmark records a user saving a post for later.
type Bookmark struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Bookmark) TableName() string {
	return "bookmarks"
}
