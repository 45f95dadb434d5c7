package models

import "gorm.io/gorm"

// Category groups posts under a named topic. A post belongs to at most
// one category; deleting a category nullifies the reference on its posts.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null" json:"name"`
	Slug string `gorm:"size:50;uniqueIndex" json:"slug"`
}

// TableName specifies the table name for GORM.
func (Category) TableName() string {
	return "categories"
}

// BeforeSave derives the slug from the name when none was supplied.
// Uniqueness is enforced only by the database constraint; a collision
// surfaces as a constraint-violation error to the caller.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}
