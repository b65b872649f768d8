package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noventis/certtrack-api/internal/models"
	"github.com/noventis/certtrack-api/internal/service"
	appErrors "github.com/noventis/certtrack-api/pkg/errors"
	"github.com/noventis/certtrack-api/pkg/response"
)

// CatalogHandler exposes license catalog and prerequisite graph endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary List licenses
// @Tags Catalog
// @Produce json
// @Param category query string false "Filter by category"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /licenses [get]
func (h *CatalogHandler) List(c *gin.Context) {
	var filter models.LicenseFilter
	filter.Category = c.Query("category")
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	licenses, pagination, err := h.catalog.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, licenses, pagination)
}

// Get godoc
// @Summary Get license
// @Tags Catalog
// @Produce json
// @Param id path string true "License ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /licenses/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	license, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, license, nil)
}

// Create godoc
// @Summary Create license
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateLicenseRequest true "License payload"
// @Success 201 {object} response.Envelope
// @Router /licenses [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req service.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	license, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, license)
}

// Update godoc
// @Summary Update license
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "License ID"
// @Param payload body service.UpdateLicenseRequest true "License payload"
// @Success 200 {object} response.Envelope
// @Router /licenses/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	var req service.UpdateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	license, err := h.catalog.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, license, nil)
}

// Delete godoc
// @Summary Delete license
// @Description Removes a license unless certificate records reference it
// @Tags Catalog
// @Produce json
// @Param id path string true "License ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /licenses/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Graph godoc
// @Summary Get the prerequisite graph
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /licenses/graph [get]
func (h *CatalogHandler) Graph(c *gin.Context) {
	graph, err := h.catalog.Graph(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, graph, nil)
}

// ListPrerequisites godoc
// @Summary List prerequisites of a license
// @Tags Catalog
// @Produce json
// @Param id path string true "License ID"
// @Success 200 {object} response.Envelope
// @Router /licenses/{id}/prerequisites [get]
func (h *CatalogHandler) ListPrerequisites(c *gin.Context) {
	edges, err := h.catalog.ListPrerequisites(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, edges, nil)
}

// AddPrerequisite godoc
// @Summary Add a prerequisite edge
// @Description Rejects self-loops and edges that would close a cycle
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "License ID"
// @Param payload body service.AddPrerequisiteRequest true "Prerequisite payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /licenses/{id}/prerequisites [post]
func (h *CatalogHandler) AddPrerequisite(c *gin.Context) {
	var req service.AddPrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	edge, err := h.catalog.AddPrerequisite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, edge)
}

// RemovePrerequisite godoc
// @Summary Remove a prerequisite edge
// @Tags Catalog
// @Produce json
// @Param id path string true "License ID"
// @Param prerequisiteId path string true "Prerequisite license ID"
// @Success 204 {object} response.Envelope
// @Router /licenses/{id}/prerequisites/{prerequisiteId} [delete]
func (h *CatalogHandler) RemovePrerequisite(c *gin.Context) {
	if err := h.catalog.RemovePrerequisite(c.Request.Context(), c.Param("id"), c.Param("prerequisiteId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
