package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"parcel-dispatch/internal/domain"
	"parcel-dispatch/shared/auth"
	"parcel-dispatch/shared/middleware"

	"github.com/gin-gonic/gin"
)

type DispatchHandler struct {
	dispatch domain.DispatchService
	location *time.Location
}

func NewDispatchHandler(dispatch domain.DispatchService, location *time.Location) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatch, location: location}
}

func (h *DispatchHandler) SetupRoutes(router *gin.RouterGroup, validator *auth.Validator) {
	pickup := router.Group("/pickup")
	pickup.Use(middleware.AuthMiddleware(validator))
	pickup.Use(middleware.RequireRole(auth.RoleDriver))
	{
		pickup.POST("/webhook", h.pickupWebhook)
		pickup.GET("/next", h.pickupNext)
		pickup.POST("/complete", h.pickupComplete)
		pickup.POST("/hub-arrived", h.pickupHubArrived)
		pickup.GET("/all-completed", h.allPickupsCompleted)
	}

	delivery := router.Group("/delivery")
	delivery.Use(middleware.AuthMiddleware(validator))
	delivery.Use(middleware.RequireRole(auth.RoleDriver))
	{
		delivery.POST("/import", h.deliveryImport)
		delivery.POST("/assign", h.deliveryAssign)
		delivery.GET("/next", h.deliveryNext)
		delivery.POST("/complete", h.deliveryComplete)
		delivery.POST("/hub-arrived", h.deliveryHubArrived)
	}
}

// @Summary New parcel pickup announcement
// @Description Ingest a newly-announced parcel and assign it a pickup driver
// @Tags pickup
// @Accept json
// @Produce json
// @Param request body webhookRequest true "Parcel id"
// @Success 200 {object} domain.IngestResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/pickup/webhook [post]
func (h *DispatchHandler) pickupWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.dispatch.IngestPickupAnnouncement(c.Request.Context(), req.ParcelID, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type webhookRequest struct {
	ParcelID uint64 `json:"parcelId" binding:"required"`
}

// @Summary Get the driver's next pickup stop
// @Tags pickup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.NextDestinationResponse
// @Failure 401 {object} map[string]string
// @Router /api/pickup/next [get]
func (h *DispatchHandler) pickupNext(c *gin.Context) {
	driverID, err := driverIDFromClaims(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.dispatch.NextDestination(c.Request.Context(), driverID, domain.PhasePickup, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Mark a pickup stop complete
// @Tags pickup
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body completionRequest true "Parcel id"
// @Success 200 {object} domain.CompletionResponse
// @Failure 400 {object} map[string]string
// @Router /api/pickup/complete [post]
func (h *DispatchHandler) pickupComplete(c *gin.Context) {
	driverID, err := driverIDFromClaims(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.dispatch.CompletePickup(c.Request.Context(), driverID, req.ParcelID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type completionRequest struct {
	ParcelID uint64 `json:"parcelId" binding:"required"`
}

// @Summary Report hub arrival for the pickup phase
// @Tags pickup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.HubArrivalResponse
// @Failure 400 {object} map[string]string
// @Router /api/pickup/hub-arrived [post]
func (h *DispatchHandler) pickupHubArrived(c *gin.Context) {
	driverID, err := driverIDFromClaims(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.dispatch.HubArrived(c.Request.Context(), driverID, domain.PhasePickup, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Sweep: convert completed pickups into deliveries once all pickups are done
// @Tags pickup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /api/pickup/all-completed [get]
func (h *DispatchHandler) allPickupsCompleted(c *gin.Context) {
	assigned, err := h.dispatch.AllPickupsCompletedSweep(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}

// @Summary Import today's completed, unclaimed pickups as deliveries
// @Tags delivery
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /api/delivery/import [post]
func (h *DispatchHandler) deliveryImport(c *gin.Context) {
	imported, err := h.dispatch.ImportTodaysDeliveries(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

// @Summary Assign today's unassigned deliveries to delivery drivers
// @Tags delivery
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Router /api/delivery/assign [post]
func (h *DispatchHandler) deliveryAssign(c *gin.Context) {
	assigned, err := h.dispatch.AssignDeliveries(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}

// @Summary Get the driver's next delivery stop
// @Tags delivery
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.NextDestinationResponse
// @Failure 401 {object} map[string]string
// @Router /api/delivery/next [get]
func (h *DispatchHandler) deliveryNext(c *gin.Context) {
	driverID, err := driverIDFromClaims(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.dispatch.NextDestination(c.Request.Context(), driverID, domain.PhaseDelivery, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Mark a delivery stop complete
// @Tags delivery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body deliveryCompletionRequest true "Delivery id"
// @Success 200 {object} domain.CompletionResponse
// @Failure 400 {object} map[string]string
// @Router /api/delivery/complete [post]
func (h *DispatchHandler) deliveryComplete(c *gin.Context) {
	driverID, err := driverIDFromClaims(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req deliveryCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.dispatch.CompleteDelivery(c.Request.Context(), driverID, req.DeliveryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type deliveryCompletionRequest struct {
	DeliveryID uint64 `json:"deliveryId" binding:"required"`
}

// @Summary Report hub arrival for the delivery phase
// @Tags delivery
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.HubArrivalResponse
// @Failure 400 {object} map[string]string
// @Router /api/delivery/hub-arrived [post]
func (h *DispatchHandler) deliveryHubArrived(c *gin.Context) {
	driverID, err := driverIDFromClaims(c)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.dispatch.HubArrived(c.Request.Context(), driverID, domain.PhaseDelivery, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func driverIDFromClaims(c *gin.Context) (uint64, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return 0, domain.Authorizationf("missing authentication claims")
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return 0, domain.Validationf("driver id claim %q is not numeric", claims.UserID)
	}
	return id, nil
}

// writeError maps a domain.Error to its HTTP status, merging Details into
// the JSON body when present. Any other error is treated as internal.
func writeError(c *gin.Context, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"error": domainErr.Message}
	for k, v := range domainErr.Details {
		body[k] = v
	}

	switch domainErr.Kind {
	case domain.ErrValidation:
		c.JSON(http.StatusBadRequest, body)
	case domain.ErrAuthentication:
		c.JSON(http.StatusUnauthorized, body)
	case domain.ErrAuthorization:
		c.JSON(http.StatusForbidden, body)
	case domain.ErrNotFound:
		c.JSON(http.StatusNotFound, body)
	case domain.ErrConsistencyConflict:
		c.JSON(http.StatusInternalServerError, body)
	case domain.ErrExternalUnavailable:
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
