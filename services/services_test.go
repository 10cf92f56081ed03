package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"bookstore-restful/auth"
	"bookstore-restful/models"
	"bookstore-restful/repositories"
	"bookstore-restful/testutil"
)

type fixture struct {
	users  UserService
	books  BookService
	tokens *auth.TokenManager
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	tokens := auth.NewTokenManager("test-secret", 24*time.Hour)

	users, err := NewUserService(repositories.NewUserRepository(db), tokens, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)
	return fixture{
		users:  users,
		books:  NewBookService(repositories.NewBookRepository(db), zap.NewNop()),
		tokens: tokens,
	}
}

func register(t *testing.T, f fixture, email, password string) *models.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), &RegisterInput{
		Username: strings.Split(email, "@")[0],
		Email:    email,
		Location: "Oslo",
		Phone:    "555-0100",
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := register(t, f, "alice@example.com", "p4ss")
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "p4ss", user.Password)
	assert.True(t, auth.CheckPassword("p4ss", user.Password))

	result, err := f.users.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "p4ss"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, result.Role)

	claims, err := f.tokens.ParseAndValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Username: "alice", Email: "alice@example.com", Role: models.RoleUser}, claims.Identity())
}

func TestRegisterRequiresPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Register(context.Background(), &RegisterInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	register(t, f, "alice@example.com", "p4ss")

	_, wrongPassword := f.users.Login(ctx, &LoginInput{Email: "alice@example.com", Password: "nope"})
	_, unknownEmail := f.users.Login(ctx, &LoginInput{Email: "ghost@example.com", Password: "p4ss"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUpdateRoleReflectedInNextToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := register(t, f, "bob@example.com", "pw")

	updated, err := f.users.UpdateRole(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	result, err := f.users.Login(ctx, &LoginInput{Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.Role)

	claims, err := f.tokens.ParseAndValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestUpdateRoleErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := register(t, f, "bob@example.com", "pw")

	_, err := f.users.UpdateRole(ctx, user.ID+10, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.users.UpdateRole(ctx, user.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.users.UpdateRole(ctx, user.ID, strings.Repeat("r", maxRoleLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListUsersHidesPasswords(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice@example.com", "pw")
	register(t, f, "bob@example.com", "pw")

	users, err := f.users.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}
}

func TestCreateBookUsesOwnerIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := auth.Identity{Username: "alice", Email: "alice@example.com", Role: models.RoleUser}

	book, err := f.books.Create(ctx, owner, &BookInput{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.Equal(t, "alice", book.Username)
	assert.Equal(t, "alice@example.com", book.Email)
	assert.False(t, book.CreatedAt.IsZero())

	got, err := f.books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, got.ID)

	_, err = f.books.Get(ctx, book.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookRejectsLongDescription(t *testing.T) {
	f := newFixture(t)
	owner := auth.Identity{Username: "alice", Email: "alice@example.com"}

	_, err := f.books.Create(context.Background(), owner, &BookInput{
		Title:       "Too long",
		Description: strings.Repeat("é", models.MaxDescriptionLength+1),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.books.Create(context.Background(), owner, &BookInput{
		Title:       "Just right",
		Description: strings.Repeat("é", models.MaxDescriptionLength),
	})
	assert.NoError(t, err)
}

func TestBookQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := auth.Identity{Username: "alice", Email: "alice@example.com"}

	books, err := f.books.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	_, err = f.books.Create(ctx, alice, &BookInput{Title: "The ABC of Algorithms"})
	require.NoError(t, err)

	t.Run("ListByUsername", func(t *testing.T) {
		books, err := f.books.ListByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, books, 1)

		_, err = f.books.ListByUsername(ctx, "bob")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.books.ListByUsername(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("SearchByTitle", func(t *testing.T) {
		books, err := f.books.SearchByTitle(ctx, "abc")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "The ABC of Algorithms", books[0].Title)

		_, err = f.books.SearchByTitle(ctx, "xyz")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DailyCounts", func(t *testing.T) {
		counts, err := f.books.DailyCounts(ctx)
		require.NoError(t, err)
		require.Len(t, counts, 1)
		assert.Equal(t, int64(1), counts[0].Count)
	})
}
