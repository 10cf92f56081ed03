package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bookstore-restful/auth"
	"bookstore-restful/models"
	"bookstore-restful/repositories"
)

type BookService interface {
	Create(ctx context.Context, owner auth.Identity, input *BookInput) (*models.Book, error)
	List(ctx context.Context) ([]models.Book, error)
	Get(ctx context.Context, id uint) (*models.Book, error)
	ListByUsername(ctx context.Context, username string) ([]models.Book, error)
	SearchByTitle(ctx context.Context, title string) ([]models.Book, error)
	DailyCounts(ctx context.Context) ([]models.DailyCount, error)
}

// BookInput is the body of a create request. Ownership comes from the
// caller's token, never from the body.
type BookInput struct {
	Title           string              `json:"title"`
	Genre           string              `json:"genre"`
	Price           decimal.NullDecimal `json:"price"`
	ImagePath       string              `json:"imagePath"`
	Author          string              `json:"author"`
	PublicationDate models.Date         `json:"publicationdate"`
	Publisher       string              `json:"publisher"`
	Description     string              `json:"description"`
}

type bookService struct {
	repo   repositories.BookRepository
	logger *zap.Logger
}

var _ BookService = (*bookService)(nil)

func NewBookService(repo repositories.BookRepository, logger *zap.Logger) BookService {
	return &bookService{repo: repo, logger: logger}
}

func (s *bookService) Create(ctx context.Context, owner auth.Identity, input *BookInput) (*models.Book, error) {
	if utf8.RuneCountInString(input.Description) > models.MaxDescriptionLength {
		return nil, newError(ErrInvalidInput, fmt.Sprintf("Description must be at most %d characters", models.MaxDescriptionLength))
	}

	book := models.Book{
		Title:           input.Title,
		Genre:           input.Genre,
		Price:           input.Price,
		ImagePath:       input.ImagePath,
		Author:          input.Author,
		PublicationDate: input.PublicationDate,
		Publisher:       input.Publisher,
		Description:     input.Description,
		Username:        owner.Username,
		Email:           owner.Email,
	}
	if err := s.repo.Create(ctx, &book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("Book added", zap.Uint("id", book.ID), zap.String("username", book.Username))
	return &book, nil
}

func (s *bookService) List(ctx context.Context) ([]models.Book, error) {
	books, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

func (s *bookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "Book not found")
		}
		return nil, fmt.Errorf("find book %d: %w", id, err)
	}
	return book, nil
}

// ListByUsername returns the books added by username. Having none is
// reported as ErrNotFound.
func (s *bookService) ListByUsername(ctx context.Context, username string) ([]models.Book, error) {
	if username == "" {
		return nil, newError(ErrInvalidInput, "Username is required")
	}
	books, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find books by username: %w", err)
	}
	if len(books) == 0 {
		return nil, newError(ErrNotFound, "No books found for this user")
	}
	return books, nil
}

// SearchByTitle returns books whose title contains title, ignoring case.
// An empty title matches every book; no match is reported as ErrNotFound.
func (s *bookService) SearchByTitle(ctx context.Context, title string) ([]models.Book, error) {
	books, err := s.repo.SearchByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	if len(books) == 0 {
		return nil, newError(ErrNotFound, "No books found")
	}
	return books, nil
}

func (s *bookService) DailyCounts(ctx context.Context) ([]models.DailyCount, error) {
	counts, err := s.repo.DailyCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books per day: %w", err)
	}
	return counts, nil
}
