package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Voice platform webhooks.
	CallStartHandler gin.HandlerFunc
	ToolHandler      gin.HandlerFunc
	HangupHandler    gin.HandlerFunc

	// Dashboard auth.
	AdminLoginHandler gin.HandlerFunc

	// Dashboard endpoints.
	ListBookingsHandler        gin.HandlerFunc
	GetBookingHandler          gin.HandlerFunc
	UpdateBookingStatusHandler gin.HandlerFunc
	GetPassengerHandler        gin.HandlerFunc
	ListCallsHandler           gin.HandlerFunc
	GetCallSummaryHandler      gin.HandlerFunc
}
