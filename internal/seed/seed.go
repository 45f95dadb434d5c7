package seed

import (
	"fmt"
	"log"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var defaultCategories = []string{
	"Tech", "Lifestyle", "Travel", "Food", "Programming", "Books",
}

// Seeder populates the database with demo users, posts, comments and
// interactions.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll wipes all seeded tables.
func (s *Seeder) ClearAll() error {
	tables := []string{"post_tags", "likes", "bookmarks", "comments", "posts", "tags", "categories", "users"}
	for _, table := range tables {
		if err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// Run creates numUsers demo users authoring numPosts posts across the
// default categories, with comments, tags, likes and bookmarks sprinkled
// over them.
func (s *Seeder) Run(numUsers, numPosts int) error {
	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return fmt.Errorf("seeding user: %w", err)
		}
		users = append(users, user)
	}

	categories := make([]*models.Category, 0, len(defaultCategories))
	for _, name := range defaultCategories {
		category, err := s.factory.CreateCategory(name)
		if err != nil {
			return fmt.Errorf("seeding category: %w", err)
		}
		categories = append(categories, category)
	}

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		category := categories[gofakeit.Number(0, len(categories)-1)]
		post, err := s.factory.CreatePost(author, func(p *models.Post) {
			p.CategoryID = &category.ID
		})
		if err != nil {
			return fmt.Errorf("seeding post: %w", err)
		}

		// a few tags per post
		for t := 0; t < gofakeit.Number(0, 3); t++ {
			tag := models.Tag{Name: gofakeit.HackerNoun()}
			if err := s.db.Where(models.Tag{Name: tag.Name}).FirstOrCreate(&tag).Error; err != nil {
				return fmt.Errorf("seeding tag: %w", err)
			}
			if err := s.db.Model(post).Association("Tags").Append(&tag); err != nil {
				return fmt.Errorf("attaching tag: %w", err)
			}
		}
		posts = append(posts, post)
	}

	// comments and interactions
	for _, post := range posts {
		for i := 0; i < gofakeit.Number(0, 5); i++ {
			commenter := users[gofakeit.Number(0, len(users)-1)]
			if _, err := s.factory.CreateComment(commenter, post); err != nil {
				return fmt.Errorf("seeding comment: %w", err)
			}
		}
		for i := 0; i < gofakeit.Number(0, len(users)-1); i++ {
			liker := users[gofakeit.Number(0, len(users)-1)]
			like := models.Like{UserID: liker.ID, PostID: post.ID}
			if err := s.db.Where(like).FirstOrCreate(&like).Error; err != nil {
				return fmt.Errorf("seeding like: %w", err)
			}
		}
		if gofakeit.Bool() {
			reader := users[gofakeit.Number(0, len(users)-1)]
			bookmark := models.Bookmark{UserID: reader.ID, PostID: post.ID}
			if err := s.db.Where(bookmark).FirstOrCreate(&bookmark).Error; err != nil {
				return fmt.Errorf("seeding bookmark: %w", err)
			}
		}
	}

	log.Printf("Seeded %d users, %d categories, %d posts", len(users), len(categories), len(posts))
	return nil
}
