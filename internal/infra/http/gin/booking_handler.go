package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/dto"
	bookingapp "alxtravel/internal/app/handlers/booking"
	"alxtravel/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
}

func (h BookingHandler) Create(c *gin.Context) {
	guest, ok := requireCaller(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := parseDate(req.CheckIn, "check_in")
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := parseDate(req.CheckOut, "check_out")
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		ListingID:       req.ListingID,
		GuestID:         guest,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", "/api/v1/bookings/"+result.BookingID)
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	requester, ok := requireCaller(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{BookingID: c.Param("id"), RequesterID: requester}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingDTO](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	requester, ok := requireCaller(c)
	if !ok {
		return
	}
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), RequesterID: requester}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
