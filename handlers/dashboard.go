package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	bookingRepo "voyager/database/repository/booking"
	passengerRepo "voyager/database/repository/passenger"
	"voyager/models"
	"voyager/services/callstate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler exposes read-mostly operational views: booking records,
// passenger profiles, and summaries of the calls currently in flight.
type DashboardHandler struct {
	Bookings   bookingRepo.BookingRepository
	Passengers passengerRepo.PassengerRepository
	Store      callstate.Store
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(bookings bookingRepo.BookingRepository, passengers passengerRepo.PassengerRepository, store callstate.Store) *DashboardHandler {
	return &DashboardHandler{Bookings: bookings, Passengers: passengers, Store: store}
}

// ListBookingsHandler returns booking records newest first, optionally
// filtered by ?status= and capped by ?limit= (default 50).
func (dh *DashboardHandler) ListBookingsHandler(c *gin.Context) {
	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	bookings, err := dh.Bookings.List(c.Query("status"), limit)
	if err != nil {
		zap.L().Error("Failed to list bookings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GetBookingHandler returns one booking record by internal id.
func (dh *DashboardHandler) GetBookingHandler(c *gin.Context) {
	booking, err := dh.Bookings.GetByID(c.Param("id"))
	if err != nil {
		zap.L().Error("Failed to fetch booking",
			zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch booking"})
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatusHandler moves a confirmed booking to completed or
// cancelled. The repository rejects every other transition.
func (dh *DashboardHandler) UpdateBookingStatusHandler(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	id := c.Param("id")
	if err := dh.Bookings.UpdateStatus(id, strings.ToLower(strings.TrimSpace(req.Status))); err != nil {
		zap.L().Warn("Booking status update rejected",
			zap.String("id", id), zap.String("status", req.Status), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPassengerHandler returns a passenger profile by phone number together
// with their booking history.
func (dh *DashboardHandler) GetPassengerHandler(c *gin.Context) {
	phone := c.Param("phone")

	passenger, err := dh.Passengers.GetByPhone(phone)
	if err != nil {
		zap.L().Error("Failed to fetch passenger",
			zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch passenger"})
		return
	}
	if passenger == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Passenger not found"})
		return
	}

	bookings, err := dh.Bookings.GetByPhone(phone)
	if err != nil {
		zap.L().Error("Failed to fetch passenger bookings",
			zap.String("phone", phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"passenger": passenger, "bookings": bookings})
}

// ListCallsHandler summarizes every call currently holding state.
func (dh *DashboardHandler) ListCallsHandler(c *gin.Context) {
	ctx := c.Request.Context()

	ids, err := dh.Store.ListCallIDs(ctx)
	if err != nil {
		zap.L().Error("Failed to list calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list calls"})
		return
	}

	summaries := make([]models.CallSummary, 0, len(ids))
	for _, id := range ids {
		state, err := dh.Store.Get(ctx, id)
		if err != nil {
			// The call may have ended between List and Get.
			continue
		}
		summaries = append(summaries, callstate.BuildSummary(state))
	}
	c.JSON(http.StatusOK, summaries)
}

// GetCallSummaryHandler summarizes one live call.
func (dh *DashboardHandler) GetCallSummaryHandler(c *gin.Context) {
	state, err := dh.Store.Get(c.Request.Context(), c.Param("callID"))
	if err != nil {
		if errors.Is(err, callstate.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No live call with that id"})
			return
		}
		zap.L().Error("Failed to fetch call state",
			zap.String("callID", c.Param("callID")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch call"})
		return
	}
	c.JSON(http.StatusOK, callstate.BuildSummary(state))
}
