package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noventis/certtrack-api/internal/dto"
	"github.com/noventis/certtrack-api/internal/middleware"
	"github.com/noventis/certtrack-api/internal/service"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
	"github.com/noventis/certtrack-api/pkg/response"
)

// ExemptionHandler exposes mass exemption, template and rule endpoints.
type ExemptionHandler struct {
	exemptions *service.ExemptionService
}

// NewExemptionHandler constructs ExemptionHandler.
func NewExemptionHandler(exemptions *service.ExemptionService) *ExemptionHandler {
	return &ExemptionHandler{exemptions: exemptions}
}

func actorID(c *gin.Context) string {
	if claims := middleware.CurrentUser(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// Preview godoc
// @Summary Preview matching employees
// @Description Returns the employees a criteria set would match right now
// @Tags Exemptions
// @Accept json
// @Produce json
// @Param payload body dto.PreviewExemptionRequest true "Criteria payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /exemptions/preview [post]
func (h *ExemptionHandler) Preview(c *gin.Context) {
	var req dto.PreviewExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summaries, err := h.exemptions.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Execute godoc
// @Summary Execute a mass exemption
// @Description Grants exemptions to every matching employee, best effort, with per-employee result rows
// @Tags Exemptions
// @Accept json
// @Produce json
// @Param payload body dto.ExecuteExemptionRequest true "Execution payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /exemptions/execute [post]
func (h *ExemptionHandler) Execute(c *gin.Context) {
	var req dto.ExecuteExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.exemptions.Execute(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, outcome)
}

// ListOperations godoc
// @Summary List mass exemption operations
// @Tags Exemptions
// @Produce json
// @Param licenseId query string false "Filter by license"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exemptions/operations [get]
func (h *ExemptionHandler) ListOperations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	ops, pagination, err := h.exemptions.ListOperations(c.Request.Context(), c.Query("licenseId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ops, pagination)
}

// GetOperation godoc
// @Summary Get one operation with its result rows
// @Tags Exemptions
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exemptions/operations/{id} [get]
func (h *ExemptionHandler) GetOperation(c *gin.Context) {
	detail, err := h.exemptions.GetOperation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListForEmployee godoc
// @Summary List exemptions held by an employee
// @Tags Exemptions
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/exemptions [get]
func (h *ExemptionHandler) ListForEmployee(c *gin.Context) {
	exemptions, err := h.exemptions.ListForEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exemptions, nil)
}

// Revoke godoc
// @Summary Revoke an exemption
// @Tags Exemptions
// @Produce json
// @Param id path string true "Exemption ID"
// @Success 204 {object} response.Envelope
// @Router /exemptions/{id} [delete]
func (h *ExemptionHandler) Revoke(c *gin.Context) {
	if err := h.exemptions.Revoke(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTemplates godoc
// @Summary List exemption templates
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exemption-templates [get]
func (h *ExemptionHandler) ListTemplates(c *gin.Context) {
	templates, err := h.exemptions.ListTemplates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// GetTemplate godoc
// @Summary Get one template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exemption-templates/{id} [get]
func (h *ExemptionHandler) GetTemplate(c *gin.Context) {
	template, err := h.exemptions.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// CreateTemplate godoc
// @Summary Save a reusable criteria template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.SaveTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /exemption-templates [post]
func (h *ExemptionHandler) CreateTemplate(c *gin.Context) {
	var req dto.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.exemptions.CreateTemplate(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// UpdateTemplate godoc
// @Summary Update a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.SaveTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Router /exemption-templates/{id} [put]
func (h *ExemptionHandler) UpdateTemplate(c *gin.Context) {
	var req dto.SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	template, err := h.exemptions.UpdateTemplate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}

// DeleteTemplate godoc
// @Summary Delete a template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 204 {object} response.Envelope
// @Router /exemption-templates/{id} [delete]
func (h *ExemptionHandler) DeleteTemplate(c *gin.Context) {
	if err := h.exemptions.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListRules godoc
// @Summary List auto-exemption rules
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exemption-rules [get]
func (h *ExemptionHandler) ListRules(c *gin.Context) {
	rules, err := h.exemptions.ListRules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// GetRule godoc
// @Summary Get one auto-exemption rule
// @Tags Rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exemption-rules/{id} [get]
func (h *ExemptionHandler) GetRule(c *gin.Context) {
	rule, err := h.exemptions.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// CreateRule godoc
// @Summary Create an auto-exemption rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.SaveRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /exemption-rules [post]
func (h *ExemptionHandler) CreateRule(c *gin.Context) {
	var req dto.SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.exemptions.CreateRule(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateRule godoc
// @Summary Update an auto-exemption rule
// @Tags Rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body dto.SaveRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /exemption-rules/{id} [put]
func (h *ExemptionHandler) UpdateRule(c *gin.Context) {
	var req dto.SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.exemptions.UpdateRule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// DeleteRule godoc
// @Summary Delete an auto-exemption rule
// @Tags Rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Router /exemption-rules/{id} [delete]
func (h *ExemptionHandler) DeleteRule(c *gin.Context) {
	if err := h.exemptions.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RunRule godoc
// @Summary Run an auto-exemption rule
// @Description Schedules an asynchronous execution of an enabled rule
// @Tags Rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 202 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /exemption-rules/{id}/run [post]
func (h *ExemptionHandler) RunRule(c *gin.Context) {
	if err := h.exemptions.EnqueueRuleRun(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "scheduled"}, nil)
}
