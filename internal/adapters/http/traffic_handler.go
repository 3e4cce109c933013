package http

import (
	"net/http"

	"parcel-dispatch/internal/domain"

	"github.com/gin-gonic/gin"
)

// TrafficHandler exposes the traffic-proxy-fronted routing engine and the
// geocoder directly, for callers that want a rewritten route/matrix or an
// address lookup without going through the dispatch planner.
type TrafficHandler struct {
	routing  domain.RoutingEngine
	geocoder domain.Geocoder
}

func NewTrafficHandler(routing domain.RoutingEngine, geocoder domain.Geocoder) *TrafficHandler {
	return &TrafficHandler{routing: routing, geocoder: geocoder}
}

func (h *TrafficHandler) SetupRoutes(router *gin.RouterGroup) {
	router.POST("/route", h.route)
	router.POST("/matrix", h.matrix)
	router.GET("/search", h.search)
}

type routeRequest struct {
	Locations      []domain.Location `json:"locations" binding:"required,min=2"`
	UseLiveTraffic bool              `json:"use_live_traffic"`
}

// @Summary Traffic-rewritten turn-by-turn route
// @Tags traffic
// @Accept json
// @Produce json
// @Param request body routeRequest true "Ordered stop locations"
// @Success 200 {object} domain.RouteResponse
// @Failure 400 {object} map[string]string
// @Router /route [post]
func (h *TrafficHandler) route(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.routing.Route(c.Request.Context(), req.Locations, req.UseLiveTraffic)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type matrixRequest struct {
	Locations []domain.Location `json:"locations" binding:"required,min=2"`
}

// @Summary Traffic-rewritten many-to-many travel time/distance matrix
// @Tags traffic
// @Accept json
// @Produce json
// @Param request body matrixRequest true "Locations"
// @Success 200 {object} domain.MatrixResponse
// @Failure 400 {object} map[string]string
// @Router /matrix [post]
func (h *TrafficHandler) matrix(c *gin.Context) {
	var req matrixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.routing.Matrix(c.Request.Context(), req.Locations)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Geocode an address
// @Tags traffic
// @Produce json
// @Param address query string true "Free-text address"
// @Success 200 {object} domain.GeocodeResult
// @Failure 400 {object} map[string]string
// @Router /search [get]
func (h *TrafficHandler) search(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address query parameter is required"})
		return
	}
	result, err := h.geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
