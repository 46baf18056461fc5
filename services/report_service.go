package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/store"
	"gorm.io/datatypes"
)

// NewReportInput holds the fields accepted when filing a report
type NewReportInput struct {
	ClientID    string   `json:"client_id"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Photos      []string `json:"photos"`
	Videos      []string `json:"videos"`
}

// ReportUpdate is a partial update. Nil fields are left untouched.
type ReportUpdate struct {
	Status         *string    `json:"status"`
	Description    *string    `json:"description"`
	Priority       *string    `json:"priority"`
	Photos         []string   `json:"photos"`
	Videos         []string   `json:"videos"`
	EmployeeNotes  *string    `json:"employee_notes"`
	AdminNotes     *string    `json:"admin_notes"`
	TotalCost      *float64   `json:"total_cost"`
	PartsCost      *float64   `json:"parts_cost"`
	CompletionDate *time.Time `json:"completion_date"`
}

// ReportService is the service report engine
type ReportService struct {
	reports   store.ReportStore
	clients   store.ClientStore
	publisher EventPublisher
	media     MediaService
	now       func() time.Time
}

// NewReportService creates the report engine. Nil collaborators fall back to
// a no-op publisher, disabled media and time.Now.
func NewReportService(reports store.ReportStore, clients store.ClientStore, publisher EventPublisher, media MediaService, now func() time.Time) *ReportService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if media == nil {
		media = NewMediaService(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{reports: reports, clients: clients, publisher: publisher, media: media, now: now}
}

// Create files a new report against an existing client
func (s *ReportService) Create(ctx context.Context, actor *models.User, input NewReportInput) (*models.ServiceReport, error) {
	if actor == nil {
		return nil, newError(ErrUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	if strings.TrimSpace(input.ClientID) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, newError(ErrValidation, "VALIDATION_ERROR", "client_id and description are required")
	}
	priority, err := models.ParsePriority(input.Priority)
	if err != nil {
		return nil, newError(ErrValidation, "INVALID_PRIORITY", "priority must be one of URGENT, SAME WEEK, NEXT WEEK, NORMAL")
	}

	client, err := s.clients.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, fromStore(err, "CLIENT_NOT_FOUND", "Client not found")
	}

	now := s.now().UTC()
	report := &models.ServiceReport{
		ClientID:            client.ID,
		ClientName:          client.Name,
		ClientAddress:       client.Address,
		Description:         input.Description,
		Priority:            priority,
		Photos:              nonNil(input.Photos),
		Videos:              nonNil(input.Videos),
		Status:              models.StatusReported,
		RequestDate:         now,
		CreatedAt:           now,
		LastModified:        now,
		ModificationHistory: datatypes.JSONSlice[models.ModificationEntry]{},
	}
	if !actor.IsAdministrator() {
		report.EmployeeID = &actor.ID
		report.EmployeeName = &actor.Username
	}

	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, fromStore(err, "", "")
	}

	publishQuietly(ctx, s.publisher, ReportEvent{
		Type:       EventReportCreated,
		ReportID:   report.ID,
		ClientID:   report.ClientID,
		EmployeeID: report.EmployeeID,
		Status:     string(report.Status),
		Actor:      actor.Username,
		OccurredAt: now,
	})
	return report, nil
}

// List returns reports newest first. Employees only see reports they filed.
func (s *ReportService) List(ctx context.Context, actor *models.User) ([]models.ServiceReport, error) {
	if actor == nil {
		return nil, newError(ErrUnauthorized, "UNAUTHORIZED", "Authentication required")
	}

	filter := store.ReportFilter{}
	if !actor.IsAdministrator() {
		filter.EmployeeID = &actor.ID
	}

	reports, err := s.reports.ListReports(ctx, filter)
	if err != nil {
		return nil, fromStore(err, "", "")
	}
	return reports, nil
}

// Get loads one report the actor is allowed to see
func (s *ReportService) Get(ctx context.Context, actor *models.User, id string) (*models.ServiceReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAccess(actor, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Update applies a partial update and appends one history entry when
// anything changed. Concurrent updates are last-write-wins.
func (s *ReportService) Update(ctx context.Context, actor *models.User, id string, update ReportUpdate) (*models.ServiceReport, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAccess(actor, report); err != nil {
		return nil, err
	}
	if !actor.IsAdministrator() && (update.AdminNotes != nil || update.TotalCost != nil || update.PartsCost != nil || update.CompletionDate != nil) {
		return nil, newError(ErrForbidden, "ADMIN_ONLY_FIELD", "Only administrators may change notes, costs or completion date")
	}

	now := s.now().UTC()
	previous := report.Status
	changes, err := applyUpdate(report, update, now)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return report, nil
	}

	report.LastModified = now
	report.ModificationHistory = append(report.ModificationHistory, models.ModificationEntry{
		ModifiedBy:     actor.Username,
		ModifiedByRole: actor.Role,
		ModifiedAt:     now,
		Changes:        changes,
	})

	if err := s.reports.SaveReport(ctx, report); err != nil {
		return nil, fromStore(err, "REPORT_NOT_FOUND", "Report not found")
	}

	event := ReportEvent{
		Type:       EventReportUpdated,
		ReportID:   report.ID,
		ClientID:   report.ClientID,
		EmployeeID: report.EmployeeID,
		Status:     string(report.Status),
		Changes:    changes,
		Actor:      actor.Username,
		OccurredAt: now,
	}
	if previous != report.Status {
		event.PreviousStatus = string(previous)
	}
	publishQuietly(ctx, s.publisher, event)
	return report, nil
}

// Delete removes a report and any stored media it references. Administrator only.
func (s *ReportService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireAdministrator(actor); err != nil {
		return err
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reports.DeleteReport(ctx, id); err != nil {
		return fromStore(err, "REPORT_NOT_FOUND", "Report not found")
	}

	for _, photo := range report.Photos {
		if key, ok := MediaKeyFromPhoto(photo); ok {
			if err := s.media.DeleteImage(ctx, key); err != nil {
				log.Printf("Failed to delete media %s for report %s: %v", key, id, err)
			}
		}
	}

	publishQuietly(ctx, s.publisher, ReportEvent{
		Type:       EventReportDeleted,
		ReportID:   report.ID,
		ClientID:   report.ClientID,
		EmployeeID: report.EmployeeID,
		Status:     string(report.Status),
		Actor:      actor.Username,
		OccurredAt: s.now().UTC(),
	})
	log.Printf("Report %s deleted by %q", id, actor.Username)
	return nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.ServiceReport, error) {
	report, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, fromStore(err, "REPORT_NOT_FOUND", "Report not found")
	}
	return report, nil
}

func canAccess(actor *models.User, report *models.ServiceReport) error {
	if actor == nil {
		return newError(ErrUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	if actor.IsAdministrator() || report.AuthoredBy(actor.ID) {
		return nil
	}
	return newError(ErrForbidden, "FORBIDDEN", "You can only access your own reports")
}

// applyUpdate mutates report in place and returns the changed field names in
// a fixed order. Nothing is mutated when validation fails.
func applyUpdate(report *models.ServiceReport, u ReportUpdate, now time.Time) ([]string, error) {
	status := report.Status
	if u.Status != nil {
		parsed, err := models.ParseReportStatus(*u.Status)
		if err != nil {
			return nil, newError(ErrValidation, "INVALID_STATUS", "status must be one of reported, scheduled, in_progress, completed")
		}
		status = parsed
	}

	// completion_date exists only once the report has reached completed
	if u.CompletionDate != nil && status != models.StatusCompleted && report.CompletionDate == nil {
		return nil, newError(ErrValidation, "INVALID_COMPLETION_DATE", "completion_date can only be set on a completed report")
	}

	var priority models.Priority
	if u.Priority != nil {
		parsed, err := models.ParsePriority(*u.Priority)
		if err != nil {
			return nil, newError(ErrValidation, "INVALID_PRIORITY", "priority must be one of URGENT, SAME WEEK, NEXT WEEK, NORMAL")
		}
		priority = parsed
	}

	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return nil, newError(ErrValidation, "VALIDATION_ERROR", "description cannot be empty")
	}

	var changes []string

	if status != report.Status {
		changes = append(changes, fmt.Sprintf("status: %s -> %s", report.Status, status))
		if status == models.StatusCompleted {
			stamped := now
			report.CompletionDate = &stamped
		}
		report.Status = status
	}
	if u.Description != nil && *u.Description != report.Description {
		report.Description = *u.Description
		changes = append(changes, "description")
	}
	if u.Priority != nil && priority != report.Priority {
		report.Priority = priority
		changes = append(changes, "priority")
	}
	if u.Photos != nil && !slices.Equal(u.Photos, []string(report.Photos)) {
		report.Photos = u.Photos
		changes = append(changes, "photos")
	}
	if u.Videos != nil && !slices.Equal(u.Videos, []string(report.Videos)) {
		report.Videos = u.Videos
		changes = append(changes, "videos")
	}
	if u.EmployeeNotes != nil && *u.EmployeeNotes != report.EmployeeNotes {
		report.EmployeeNotes = *u.EmployeeNotes
		changes = append(changes, "employee_notes")
	}
	if u.AdminNotes != nil && *u.AdminNotes != report.AdminNotes {
		report.AdminNotes = *u.AdminNotes
		changes = append(changes, "admin_notes")
	}
	costChanged := false
	if u.TotalCost != nil && *u.TotalCost != report.TotalCost {
		report.TotalCost = *u.TotalCost
		changes = append(changes, "total_cost")
		costChanged = true
	}
	if u.PartsCost != nil && *u.PartsCost != report.PartsCost {
		report.PartsCost = *u.PartsCost
		changes = append(changes, "parts_cost")
		costChanged = true
	}
	if profit := report.TotalCost - report.PartsCost; costChanged && profit != report.GrossProfit {
		report.GrossProfit = profit
		changes = append(changes, "gross_profit")
	}
	if u.CompletionDate != nil && (report.CompletionDate == nil || !u.CompletionDate.Equal(*report.CompletionDate)) {
		stamped := u.CompletionDate.UTC()
		report.CompletionDate = &stamped
		changes = append(changes, "completion_date")
	}

	return changes, nil
}

func nonNil(values []string) datatypes.JSONSlice[string] {
	if values == nil {
		return datatypes.JSONSlice[string]{}
	}
	return values
}
