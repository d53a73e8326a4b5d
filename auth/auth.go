// server/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	MaxPasswordLength = 72

	ownerKey    = "owner_id"
	usernameKey = "username"
)

// Users registers and authenticates accounts. A user's id is the owner scope
// of everything they create.
type Users struct {
	store store.Store
	cost  int
}

func NewUsers(st store.Store) *Users {
	return &Users{store: st, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost, mainly so tests can use bcrypt.MinCost.
func (u *Users) WithCost(cost int) *Users {
	u.cost = cost
	return u
}

func (u *Users) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &domain.ValidationError{Field: "username", Message: "is required"}
	}
	if len(password) < MinPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > MaxPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordLength)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	err = u.store.Atomic(ctx, func(r store.Repository) error {
		return r.InsertUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns domain.ErrUnauthorized for an unknown user or a wrong password.
func (u *Users) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := u.Lookup(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (u *Users) Lookup(ctx context.Context, username string) (*domain.User, error) {
	var user *domain.User
	err := u.store.Atomic(ctx, func(r store.Repository) error {
		var err error
		user, err = r.GetUserByUsername(ctx, username)
		return err
	})
	return user, err
}

// Middleware requires HTTP basic credentials of a registered user and
// records the user's id as the request's owner scope.
func Middleware(users *Users) []fiber.Handler {
	check := basicauth.New(basicauth.Config{
		Realm: "NoteSync",
		Authorizer: func(username, password string) bool {
			_, err := users.Authenticate(context.Background(), username, password)
			return err == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="NoteSync"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		},
	})

	resolve := func(c *fiber.Ctx) error {
		username, _ := c.Locals(usernameKey).(string)
		user, err := users.Lookup(c.UserContext(), username)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
		c.Locals(ownerKey, user.ID)
		return c.Next()
	}

	return []fiber.Handler{check, resolve}
}

// OwnerID returns the owner scope set by Middleware.
func OwnerID(c *fiber.Ctx) string {
	id, _ := c.Locals(ownerKey).(string)
	return id
}
