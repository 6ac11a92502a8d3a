package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artcry/vpn-service/internal/models"
	"github.com/artcry/vpn-service/internal/service"
)

// AdminHandler serves the catalog administration endpoints.
type AdminHandler struct {
	catalog *service.CatalogService
}

func NewAdminHandler(catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{catalog: catalog}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// ==================== Types ====================

func (h *AdminHandler) ListTypes(c *gin.Context) {
	types, err := h.catalog.ListTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if types == nil {
		types = []*models.VPNType{}
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

func (h *AdminHandler) CreateType(c *gin.Context) {
	var req models.TypeUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	t, err := h.catalog.CreateType(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *AdminHandler) UpdateType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.TypeUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	t, err := h.catalog.UpdateType(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *AdminHandler) DeleteType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteType(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ==================== Countries ====================

func (h *AdminHandler) ListCountries(c *gin.Context) {
	countries, err := h.catalog.ListCountries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if countries == nil {
		countries = []*models.VPNCountry{}
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

func (h *AdminHandler) CreateCountry(c *gin.Context) {
	var req models.CountryUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	country, err := h.catalog.CreateCountry(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, country)
}

func (h *AdminHandler) UpdateCountry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.CountryUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	country, err := h.catalog.UpdateCountry(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (h *AdminHandler) DeleteCountry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteCountry(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ==================== Servers ====================

func (h *AdminHandler) ListServers(c *gin.Context) {
	servers, err := h.catalog.ListServers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if servers == nil {
		servers = []*models.VPNServer{}
	}
	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

func (h *AdminHandler) CreateServer(c *gin.Context) {
	var req models.ServerUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	srv, err := h.catalog.CreateServer(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, srv)
}

func (h *AdminHandler) UpdateServer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.ServerUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	srv, err := h.catalog.UpdateServer(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, srv)
}

func (h *AdminHandler) DeleteServer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteServer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ==================== Referral earnings ====================

// ListReferralEarnings handles GET /api/admin/referral-earnings?referrer_id=N.
func (h *AdminHandler) ListReferralEarnings(c *gin.Context) {
	referrerID, err := strconv.ParseInt(c.Query("referrer_id"), 10, 64)
	if err != nil || referrerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referrer_id"})
		return
	}

	earnings, err := h.catalog.ListReferralEarnings(c.Request.Context(), referrerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}
