package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noventis/certtrack-api/internal/service"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
	"github.com/noventis/certtrack-api/pkg/response"
)

// LedgerHandler exposes employee certificate ledger endpoints.
type LedgerHandler struct {
	ledger *service.LedgerService
}

// NewLedgerHandler constructs LedgerHandler.
func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// ListForEmployee godoc
// @Summary List an employee's certificate records
// @Tags Ledger
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/ledger [get]
func (h *LedgerHandler) ListForEmployee(c *gin.Context) {
	entries, err := h.ledger.ListForEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Get godoc
// @Summary Get one certificate record
// @Tags Ledger
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ledger/{id} [get]
func (h *LedgerHandler) Get(c *gin.Context) {
	entry, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Record a certificate achievement
// @Tags Ledger
// @Accept json
// @Produce json
// @Param payload body service.CreateLedgerEntryRequest true "Record payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ledger [post]
func (h *LedgerHandler) Create(c *gin.Context) {
	var req service.CreateLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.ledger.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Reassess godoc
// @Summary Reassess a certificate's levels
// @Description Adjusts the achieved level or renewal floor of a record
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body service.ReassessLedgerEntryRequest true "Reassessment payload"
// @Success 200 {object} response.Envelope
// @Router /ledger/{id}/reassess [put]
func (h *LedgerHandler) Reassess(c *gin.Context) {
	var req service.ReassessLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.ledger.Reassess(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// UpdateStatus godoc
// @Summary Update a certificate record's status
// @Tags Ledger
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body service.UpdateLedgerStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /ledger/{id}/status [put]
func (h *LedgerHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateLedgerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.ledger.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
