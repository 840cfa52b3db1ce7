package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/dto"
	reviewsapp "alxtravel/internal/app/handlers/reviews"
	"alxtravel/internal/app/queries"
)

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ReviewsHandler) Submit(c *gin.Context) {
	author, ok := requireCaller(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := reviewsapp.SubmitReviewCommand{
		ListingID: c.Param("id"),
		AuthorID:  author,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("review submit failed", "status", statusFor(err), "error", err)
		}
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) ListByListing(c *gin.Context) {
	query := reviewsapp.ListListingReviewsQuery{
		ListingID: c.Param("id"),
		Limit:     parsePositiveInt(c.Query("limit"), 20),
		Offset:    parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[reviewsapp.ListListingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewsHTTP = ReviewsHandler{}
