package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/store"
	"github.com/rogpool/pool-service-api/utils"
)

// NewUserInput holds the fields accepted when creating an account
type NewUserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	AccessToken string
	User        *models.User
}

// UserService owns credentials, login and account management
type UserService struct {
	users      store.UserStore
	tokens     *TokenService
	bcryptCost int
	degraded   bool
}

// NewUserService creates a new user service
func NewUserService(users store.UserStore, tokens *TokenService, bcryptCost int) *UserService {
	return &UserService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// EnableDegradedMode lets ResolveToken fall back to the identity carried by
// the token when the datastore is unreachable, so read endpoints can still
// answer with empty results.
func (s *UserService) EnableDegradedMode() {
	s.degraded = true
}

// Authenticate checks a username and password and issues a token
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Login failed for %q: unknown user", username)
			return nil, errInvalidCredentials()
		}
		return nil, fromStore(err, "", "")
	}

	if !utils.VerifyPassword(user.PasswordHash, password) {
		log.Printf("Login failed for %q: wrong password", username)
		return nil, errInvalidCredentials()
	}

	token, err := s.tokens.Issue(user.Username, user.Role)
	if err != nil {
		return nil, &Error{Kind: ErrInternal, Code: "TOKEN_ERROR", Message: err.Error()}
	}

	log.Printf("User %q logged in", username)
	return &LoginResult{AccessToken: token, User: user}, nil
}

// ResolveToken verifies a bearer token and loads the user it names.
// A user deleted after issuance no longer resolves.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, identity.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "INVALID_TOKEN", "Could not validate credentials")
		}
		if s.degraded && errors.Is(err, store.ErrUnavailable) {
			return &models.User{Username: identity.Username, Role: identity.Role}, nil
		}
		return nil, fromStore(err, "", "")
	}
	return user, nil
}

// CreateUser adds an account. Administrator only.
func (s *UserService) CreateUser(ctx context.Context, actor *models.User, input NewUserInput) (*models.User, error) {
	if err := requireAdministrator(actor); err != nil {
		return nil, err
	}
	return s.createUser(ctx, input)
}

// ListUsers returns every account sorted by username. Administrator only.
func (s *UserService) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := requireAdministrator(actor); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fromStore(err, "", "")
	}
	return users, nil
}

// DeleteUser removes an employee account. Administrator accounts cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, id string) error {
	if err := requireAdministrator(actor); err != nil {
		return err
	}

	target, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return fromStore(err, "USER_NOT_FOUND", "User not found")
	}
	if target.IsAdministrator() {
		return newError(ErrForbidden, "CANNOT_DELETE_ADMIN", "Administrator accounts cannot be deleted")
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fromStore(err, "USER_NOT_FOUND", "User not found")
	}
	log.Printf("User %q deleted by %q", target.Username, actor.Username)
	return nil
}

// EnsureUser creates the account when the username is free and leaves an
// existing one untouched. It reports whether a user was created.
func (s *UserService) EnsureUser(ctx context.Context, input NewUserInput) (bool, error) {
	_, err := s.users.GetUserByUsername(ctx, input.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fromStore(err, "", "")
	}

	if _, err := s.createUser(ctx, input); err != nil {
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *UserService) createUser(ctx context.Context, input NewUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, newError(ErrValidation, "VALIDATION_ERROR", "username and password are required")
	}

	role := models.RoleEmployee
	if input.Role != "" {
		parsed, err := models.ParseRole(input.Role)
		if err != nil {
			return nil, newError(ErrValidation, "INVALID_ROLE", "role must be administrator or employee")
		}
		role = parsed
	}

	hash, err := utils.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, &Error{Kind: ErrInternal, Code: "HASH_ERROR", Message: err.Error()}
	}

	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "USERNAME_EXISTS", "Username %q is already taken", username)
		}
		return nil, fromStore(err, "", "")
	}

	log.Printf("User %q created with role %s", user.Username, user.Role)
	return user, nil
}

func requireAdministrator(actor *models.User) error {
	if actor == nil {
		return newError(ErrUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	if !actor.IsAdministrator() {
		return newError(ErrForbidden, "FORBIDDEN", "Administrator access required")
	}
	return nil
}

func errInvalidCredentials() error {
	return newError(ErrUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")
}
