package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/utils"
)

// CreateClientRequest represents the request body for registering a client
type CreateClientRequest struct {
	Name       string  `json:"name" binding:"required"`
	Address    string  `json:"address" binding:"required"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email" binding:"omitempty,email"`
	EmployeeID *string `json:"employee_id"`
}

// ClientController handles the client registry and bulk import
type ClientController struct {
	clients  *services.ClientService
	importer *services.ImportService
	degraded bool
}

// NewClientController creates a new client controller
func NewClientController(clients *services.ClientService, importer *services.ImportService, degraded bool) *ClientController {
	return &ClientController{clients: clients, importer: importer, degraded: degraded}
}

// ListClients handles GET /api/clients - administrators see all, employees their assigned clients
func (ctrl *ClientController) ListClients(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	clients, err := ctrl.clients.List(c.Request.Context(), actor)
	respondList[models.Client](c, clients, err, ctrl.degraded)
}

// ListAllClients handles GET /api/clients/all
func (ctrl *ClientController) ListAllClients(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	clients, err := ctrl.clients.ListAll(c.Request.Context(), actor)
	respondList[models.Client](c, clients, err, ctrl.degraded)
}

// CreateClient handles POST /api/clients
func (ctrl *ClientController) CreateClient(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	client, err := ctrl.clients.Create(c.Request.Context(), actor, services.ClientInput{
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		Email:      req.Email,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    client,
	})
}

// DeleteClient handles DELETE /api/clients/:id
func (ctrl *ClientController) DeleteClient(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ctrl.clients.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Client deleted successfully",
	})
}

// ImportExcel handles POST /api/clients/import-excel - multipart "file" plus optional "employee_id"
func (ctrl *ClientController) ImportExcel(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "MISSING_FILE", "A spreadsheet must be uploaded in the 'file' field")
		return
	}
	if err := utils.ValidateSpreadsheetFile(fileHeader); err != nil {
		respondError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close uploaded file: %v", closeErr)
		}
	}()

	var employeeID *string
	if id := strings.TrimSpace(c.PostForm("employee_id")); id != "" {
		employeeID = &id
	}

	result, err := ctrl.importer.ImportWorkbook(c.Request.Context(), actor, file, employeeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("Successfully imported %d clients", result.ImportedCount),
		"importedCount": result.ImportedCount,
		"data":          result,
	})
}
