package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sportsclubhq/clubsync/internal/domain"
	"github.com/sportsclubhq/clubsync/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrUserNotFound    = repository.ErrUserNotFound
	ErrWrongPassword   = errors.New("wrong password")
	ErrAthleteNotFound = errors.New("athlete not found")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// ConnectionLinker lets parent self-registration create the unverified
// connections to the athletes named at signup.
type ConnectionLinker interface {
	Connect(ctx context.Context, athleteID, parentUserID uint, parentEmail string, relationship domain.Relationship, prefs domain.Preferences, freq domain.Frequency) (domain.ParentConnection, error)
}

type AuthService struct {
	repo          AuthUserRepository
	subscriptions ConnectionLinker
}

func NewAuthService(repo AuthUserRepository, subscriptions ConnectionLinker) *AuthService {
	return &AuthService{
		repo:          repo,
		subscriptions: subscriptions,
	}
}

// Signup registers an admin, coach or athlete, bound to their club.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	hashed, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hashed

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// SignupParent registers a parent and creates an unverified connection to
// each named athlete. The connections still require token verification; a
// parent account alone grants nothing.
func (s *AuthService) SignupParent(ctx context.Context, parent domain.User, relationship domain.Relationship, athleteEmails []string) (domain.User, error) {
	hashed, err := hashPassword(parent.Password)
	if err != nil {
		return domain.User{}, err
	}
	parent.Password = hashed
	parent.Role = domain.RoleParent
	parent.ClubID = 0 // parents reach clubs only through connections

	created, err := s.repo.Create(ctx, parent)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	for _, athleteEmail := range athleteEmails {
		athlete, err := s.repo.FindByEmail(ctx, athleteEmail)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domain.User{}, fmt.Errorf("athlete with email %s: %w", athleteEmail, ErrAthleteNotFound)
			}

			return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
		}
		if athlete.Role != domain.RoleAthlete {
			return domain.User{}, fmt.Errorf("user with email %s: %w", athleteEmail, ErrAthleteNotFound)
		}

		_, err = s.subscriptions.Connect(ctx, athlete.ID, created.ID, created.Email, relationship, defaultPreferences(), domain.FrequencyImmediate)
		if err != nil && !errors.Is(err, ErrDuplicatePending) {
			return domain.User{}, fmt.Errorf("s.subscriptions.Connect -> %w", err)
		}
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func defaultPreferences() domain.Preferences {
	return domain.Preferences{
		Attendance:    true,
		Performance:   true,
		Leave:         true,
		Announcements: true,
		Goals:         true,
	}
}
