package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/store"
)

// ClientInput holds the fields accepted when creating a client
type ClientInput struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	EmployeeID *string `json:"employee_id"`
}

// ClientService is the client registry
type ClientService struct {
	clients store.ClientStore
	users   store.UserStore
}

// NewClientService creates a new client service
func NewClientService(clients store.ClientStore, users store.UserStore) *ClientService {
	return &ClientService{clients: clients, users: users}
}

// Create registers a client. Administrator only.
func (s *ClientService) Create(ctx context.Context, actor *models.User, input ClientInput) (*models.Client, error) {
	if err := requireAdministrator(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	if name == "" || address == "" {
		return nil, newError(ErrValidation, "VALIDATION_ERROR", "name and address are required")
	}

	employeeID, err := s.resolveEmployee(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:       name,
		Address:    address,
		Phone:      blankToNil(input.Phone),
		Email:      blankToNil(input.Email),
		EmployeeID: employeeID,
	}
	if err := s.clients.CreateClient(ctx, client); err != nil {
		return nil, fromStore(err, "", "")
	}

	log.Printf("Client %q created by %q", client.Name, actor.Username)
	return client, nil
}

// List returns every client to administrators and only assigned clients to employees
func (s *ClientService) List(ctx context.Context, actor *models.User) ([]models.Client, error) {
	if actor == nil {
		return nil, newError(ErrUnauthorized, "UNAUTHORIZED", "Authentication required")
	}

	filter := store.ClientFilter{}
	if !actor.IsAdministrator() {
		filter.EmployeeID = &actor.ID
	}

	clients, err := s.clients.ListClients(ctx, filter)
	if err != nil {
		return nil, fromStore(err, "", "")
	}
	return clients, nil
}

// ListAll returns every client. Administrator only.
func (s *ClientService) ListAll(ctx context.Context, actor *models.User) ([]models.Client, error) {
	if err := requireAdministrator(actor); err != nil {
		return nil, err
	}
	return s.List(ctx, actor)
}

// Get loads one client
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, fromStore(err, "CLIENT_NOT_FOUND", "Client not found")
	}
	return client, nil
}

// Delete removes a client. Reports keep their snapshot of it. Administrator only.
func (s *ClientService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireAdministrator(actor); err != nil {
		return err
	}
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return fromStore(err, "CLIENT_NOT_FOUND", "Client not found")
	}
	log.Printf("Client %s deleted by %q", id, actor.Username)
	return nil
}

// resolveEmployee checks that an assigned employee id names an existing user
func (s *ClientService) resolveEmployee(ctx context.Context, id *string) (*string, error) {
	id = blankToNil(id)
	if id == nil {
		return nil, nil
	}

	if _, err := s.users.GetUserByID(ctx, *id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrValidation, "INVALID_EMPLOYEE", "employee_id does not reference an existing user")
		}
		return nil, fromStore(err, "", "")
	}
	return id, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
