// Package http exposes the service over REST: the internal surface used by
// the chat front-end, the JWT user surface and the admin catalog surface.
package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/artcry/vpn-service/internal/apperrors"
	"github.com/artcry/vpn-service/internal/models"
	"github.com/artcry/vpn-service/internal/service"
)

// Handler serves the lifecycle endpoints.
type Handler struct {
	lifecycle *service.LifecycleService
}

func NewHandler(lifecycle *service.LifecycleService) *Handler {
	return &Handler{lifecycle: lifecycle}
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindMalformedPayload:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the client-safe message; the cause goes to the log.
func respondError(c *gin.Context, err error) {
	log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(statusFor(err), gin.H{"error": apperrors.SafeMessage(err)})
}

// CreateInvoice handles POST /api/vpn/invoice.
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req models.InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	invoice, err := h.lifecycle.InitiatePurchase(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// PaymentSuccess handles POST /api/vpn/payment-success.
func (h *Handler) PaymentSuccess(c *gin.Context) {
	var req models.PaymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.lifecycle.CompletePurchase(c.Request.Context(), req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateRenewInvoice handles POST /api/vpn/renew-invoice.
func (h *Handler) CreateRenewInvoice(c *gin.Context) {
	var req models.RenewInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	invoice, err := h.lifecycle.InitiateRenewal(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// RenewSuccess handles POST /api/vpn/renew-success.
func (h *Handler) RenewSuccess(c *gin.Context) {
	var req models.PaymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.lifecycle.CompleteRenewal(c.Request.Context(), req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListServers handles GET /api/vpn/servers.
func (h *Handler) ListServers(c *gin.Context) {
	servers, err := h.lifecycle.ListServers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if servers == nil {
		servers = []*models.ServerSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

// GetUserCredentials handles GET /api/vpn/users/:tg_id/credentials.
func (h *Handler) GetUserCredentials(c *gin.Context) {
	tgID, err := strconv.ParseInt(c.Param("tg_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tg_id"})
		return
	}

	creds, err := h.lifecycle.ListUserCredentials(c.Request.Context(), tgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credentials": creds})
}

// GetMyCredentials handles GET /api/v1/my/credentials. The Telegram ID
// comes from the JWT, never from the request.
func (h *Handler) GetMyCredentials(c *gin.Context) {
	tgID, err := strconv.ParseInt(c.GetString("tgID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
		return
	}

	creds, err := h.lifecycle.ListUserCredentials(c.Request.Context(), tgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credentials": creds})
}
