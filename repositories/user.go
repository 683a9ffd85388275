//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"gamehub/errors"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// InMemoryUserRepository keeps accounts in process memory. Users are gone on
// restart, which is the intended lifetime for this deployment.
type InMemoryUserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byEmail: make(map[string]User),
	}
}

// CreateUser persists a new account and returns its generated id.
func (r *InMemoryUserRepository) CreateUser(email, hashedPassword string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return "", errors.ErrUserAlreadyExists
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	r.byEmail[email] = user
	return user.ID, nil
}

func (r *InMemoryUserRepository) GetUserByEmail(email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[email]
	if !ok {
		return User{}, errors.ErrInvalidCredentials
	}
	return user, nil
}
