package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"bookstore-restful/models"
)

type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	FindAll(ctx context.Context) ([]models.Book, error)
	FindByID(ctx context.Context, id uint) (*models.Book, error)
	FindByUsername(ctx context.Context, username string) ([]models.Book, error)
	SearchByTitle(ctx context.Context, title string) ([]models.Book, error)
	DailyCounts(ctx context.Context) ([]models.DailyCount, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create inserts book and reloads it, so created_at holds the value the
// database assigned.
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(book).Error; err != nil {
		return translate(err)
	}
	return translate(db.First(book, book.ID).Error)
}

func (r *bookRepository) FindAll(ctx context.Context) ([]models.Book, error) {
	books := []models.Book{}
	if err := r.db.WithContext(ctx).Order("id").Find(&books).Error; err != nil {
		return nil, translate(err)
	}
	return books, nil
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *bookRepository) FindByUsername(ctx context.Context, username string) ([]models.Book, error) {
	books := []models.Book{}
	if err := r.db.WithContext(ctx).Where("username = ?", username).Order("id").Find(&books).Error; err != nil {
		return nil, translate(err)
	}
	return books, nil
}

// SearchByTitle matches title as a case-insensitive substring. LIKE
// metacharacters in title are matched literally.
func (r *bookRepository) SearchByTitle(ctx context.Context, title string) ([]models.Book, error) {
	pattern := "%" + escapeLike(title) + "%"
	books := []models.Book{}
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE LOWER(?) ESCAPE '!'", pattern).
		Order("id").
		Find(&books).Error
	if err != nil {
		return nil, translate(err)
	}
	return books, nil
}

// DailyCounts groups books by the calendar date of created_at, oldest first.
func (r *bookRepository) DailyCounts(ctx context.Context) ([]models.DailyCount, error) {
	counts := []models.DailyCount{}
	err := r.db.WithContext(ctx).
		Raw(`SELECT DATE(created_at) AS date, COUNT(*) AS count
			FROM booksinfo
			GROUP BY DATE(created_at)
			ORDER BY DATE(created_at)`).
		Scan(&counts).Error
	if err != nil {
		return nil, translate(err)
	}
	return counts, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
