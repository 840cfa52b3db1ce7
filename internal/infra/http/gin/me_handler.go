package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/app/dto"
	bookingapp "alxtravel/internal/app/handlers/booking"
	"alxtravel/internal/app/queries"
)

type MeHTTP interface {
	ListBookings(c *gin.Context)
}

type MeHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h MeHandler) ListBookings(c *gin.Context) {
	guest, ok := requireCaller(c)
	if !ok {
		return
	}
	query := bookingapp.ListGuestBookingsQuery{GuestID: guest}
	result, err := queries.Ask[bookingapp.ListGuestBookingsQuery, dto.GuestBookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("me bookings query failed", "error", err, "user_id", guest)
		}
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = (*MeHandler)(nil)
