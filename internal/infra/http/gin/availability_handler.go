package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/app/dto"
	availabilityapp "alxtravel/internal/app/handlers/availability"
	"alxtravel/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Free(c *gin.Context) {
	from, err := parseDate(c.Query("from"), "from")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDate(c.Query("to"), "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.GetAvailabilityQuery{ListingID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Quote(c *gin.Context) {
	checkIn, err := parseDate(c.Query("check_in"), "check_in")
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := parseDate(c.Query("check_out"), "check_out")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := availabilityapp.QuoteQuery{ListingID: c.Param("id"), CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[availabilityapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
