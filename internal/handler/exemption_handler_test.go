package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noventis/certtrack-api/internal/dto"
	"github.com/noventis/certtrack-api/internal/models"
	"github.com/noventis/certtrack-api/internal/service"
)

func TestExemptionHandlerPreviewInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExemptionHandler(service.NewExemptionService(nil, nil, nil, nil, nil, nil, nil, 25, true))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/exemptions/preview", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Preview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExemptionHandlerPreviewEmptyCriteria(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExemptionHandler(service.NewExemptionService(nil, nil, nil, nil, nil, nil, nil, 25, true))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.PreviewExemptionRequest{Criteria: models.ExemptionCriteria{}})
	req, _ := http.NewRequest(http.MethodPost, "/exemptions/preview", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Preview(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "EMPTY_CRITERIA", envelope.Error.Code)
}

func TestExemptionHandlerExecuteDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExemptionHandler(service.NewExemptionService(nil, nil, nil, nil, nil, nil, nil, 25, false))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.ExecuteExemptionRequest{
		Criteria: models.ExemptionCriteria{LicenseID: "forklift", Departments: []string{"OPERATIONS"}},
		Type:     models.ExemptionPermanent,
		Reason:   "grandfathered",
	})
	req, _ := http.NewRequest(http.MethodPost, "/exemptions/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Execute(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestMetricsHandlerHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMetricsHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	c.Request = req

	handler.Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
