package models

import "gorm.io/gorm"

// Tag is a free-form label attached to posts. Tags are created lazily
// during post authoring (get-or-create by name).
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:30;uniqueIndex;not null" json:"name"`
	Slug  string `gorm:"size:30;uniqueIndex" json:"slug"`
	Posts []Post `gorm:"many2many:post_tags" json:"posts,omitempty"`
}

// BeforeSave derives the slug from the name when none was supplied.
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	return nil
}
