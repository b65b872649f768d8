package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noventis/certtrack-api/internal/dto"
	"github.com/noventis/certtrack-api/internal/service"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
	"github.com/noventis/certtrack-api/pkg/response"
)

// EligibilityHandler exposes enrollment and renewal evaluation endpoints.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
}

// NewEligibilityHandler constructs EligibilityHandler.
func NewEligibilityHandler(eligibility *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility}
}

// CheckEnrollment godoc
// @Summary Evaluate course enrollment eligibility
// @Description Decides whether an employee may enroll at a target license level
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateEnrollmentRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eligibility/enrollment [post]
func (h *EligibilityHandler) CheckEnrollment(c *gin.Context) {
	var req dto.EvaluateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	decision, err := h.eligibility.CheckEnrollment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// CheckRenewal godoc
// @Summary Evaluate certificate renewal eligibility
// @Description Decides whether the employee's certificate can be renewed without retraining
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateRenewalRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eligibility/renewal [post]
func (h *EligibilityHandler) CheckRenewal(c *gin.Context) {
	var req dto.EvaluateRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	decision, err := h.eligibility.CheckRenewal(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// TrainingLevels godoc
// @Summary List available training levels
// @Description Suggested and available levels for an employee on one license
// @Tags Eligibility
// @Produce json
// @Param id path string true "Employee ID"
// @Param licenseId path string true "License ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id}/licenses/{licenseId}/training-levels [get]
func (h *EligibilityHandler) TrainingLevels(c *gin.Context) {
	levels, err := h.eligibility.TrainingLevels(c.Request.Context(), c.Param("id"), c.Param("licenseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}
