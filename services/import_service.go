package services

import (
	"context"
	"io"
	"log"

	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/store"
	"github.com/rogpool/pool-service-api/utils"
	"golang.org/x/text/cases"
)

// ImportResult summarizes a bulk client import
type ImportResult struct {
	ImportedCount int `json:"importedCount"`
	SkippedCount  int `json:"skippedCount"`
}

// ImportService maps spreadsheet rows into client records
type ImportService struct {
	registry *ClientService
	clients  store.ClientStore
}

// NewImportService creates a new import service
func NewImportService(registry *ClientService, clients store.ClientStore) *ImportService {
	return &ImportService{registry: registry, clients: clients}
}

// ImportWorkbook parses an .xlsx workbook and imports its first sheet
func (s *ImportService) ImportWorkbook(ctx context.Context, actor *models.User, r io.Reader, employeeID *string) (*ImportResult, error) {
	if err := requireAdministrator(actor); err != nil {
		return nil, err
	}

	sheet, err := utils.ReadFirstSheet(r)
	if err != nil {
		return nil, newError(ErrValidation, "INVALID_SPREADSHEET", "Could not read spreadsheet: %v", err)
	}
	return s.Import(ctx, actor, sheet, employeeID)
}

// Import creates a client for every row with a name and address that is not
// already registered. Rows missing either are skipped, as are duplicates of
// existing clients or of earlier rows.
func (s *ImportService) Import(ctx context.Context, actor *models.User, sheet *utils.Sheet, employeeID *string) (*ImportResult, error) {
	if err := requireAdministrator(actor); err != nil {
		return nil, err
	}

	columns := matchColumns(sheet.Headers)
	if columns["name"] == "" || columns["address"] == "" {
		return nil, newError(ErrValidation, "MISSING_COLUMNS", "Spreadsheet must have 'name' and 'address' columns")
	}

	assigned, err := s.registry.resolveEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	existing, err := s.clients.ListClients(ctx, store.ClientFilter{})
	if err != nil {
		return nil, fromStore(err, "", "")
	}
	seen := make(map[clientKey]bool, len(existing))
	for _, c := range existing {
		seen[clientKey{c.Name, c.Address}] = true
	}

	result := &ImportResult{}
	for _, row := range sheet.Rows {
		key := clientKey{row[columns["name"]], row[columns["address"]]}
		if key.name == "" || key.address == "" || seen[key] {
			result.SkippedCount++
			continue
		}

		client := &models.Client{
			Name:       key.name,
			Address:    key.address,
			Phone:      optionalCell(row, columns["phone"]),
			Email:      optionalCell(row, columns["email"]),
			EmployeeID: assigned,
		}
		if err := s.clients.CreateClient(ctx, client); err != nil {
			return nil, fromStore(err, "", "")
		}
		seen[key] = true
		result.ImportedCount++
	}

	log.Printf("Imported %d clients (%d skipped) for %q", result.ImportedCount, result.SkippedCount, actor.Username)
	return result, nil
}

type clientKey struct {
	name    string
	address string
}

// matchColumns maps the known field names to the sheet's header spelling.
// A Caser is stateful, so each call folds with its own.
func matchColumns(headers []string) map[string]string {
	fold := cases.Fold()
	columns := map[string]string{}
	for _, h := range headers {
		switch field := fold.String(h); field {
		case "name", "address", "phone", "email":
			if columns[field] == "" {
				columns[field] = h
			}
		}
	}
	return columns
}

func optionalCell(row map[string]string, column string) *string {
	if column == "" {
		return nil
	}
	value := row[column]
	return blankToNil(&value)
}
