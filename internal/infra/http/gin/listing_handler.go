package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/dto"
	listingapp "alxtravel/internal/app/handlers/listings"
	"alxtravel/internal/app/queries"
	"alxtravel/internal/domain/shared/money"
)

type ListingHandler struct {
	Commands        commands.Bus
	Queries         queries.Bus
	Logger          *slog.Logger
	DefaultCurrency string
}

type priceRequest struct {
	// Amount is a decimal string such as "120.50".
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency"`
}

type createListingRequest struct {
	Title        string       `json:"title" binding:"required"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	NightlyPrice priceRequest `json:"nightly_price"`
}

func (h ListingHandler) Create(c *gin.Context) {
	owner, ok := requireCaller(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	price, err := h.price(req.NightlyPrice)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.CreateListingCommand{
		OwnerID:      owner,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		NightlyPrice: price,
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.ListingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/listings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	query := listingapp.GetListingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[listingapp.GetListingQuery, dto.ListingView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) UpdatePrice(c *gin.Context) {
	requester, ok := requireCaller(c)
	if !ok {
		return
	}
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	price, err := h.price(req)
	if err != nil {
		badRequest(c, err)
		return
	}
	cmd := listingapp.UpdateListingPriceCommand{ListingID: c.Param("id"), RequesterID: requester, Price: price}
	result, err := commands.Dispatch[listingapp.UpdateListingPriceCommand, *dto.ListingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h ListingHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h ListingHandler) setActive(c *gin.Context, active bool) {
	requester, ok := requireCaller(c)
	if !ok {
		return
	}
	cmd := listingapp.SetListingActiveCommand{ListingID: c.Param("id"), RequesterID: requester, Active: active}
	result, err := commands.Dispatch[listingapp.SetListingActiveCommand, *dto.ListingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) price(req priceRequest) (money.Money, error) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = h.DefaultCurrency
	}
	return money.ParseDecimal(req.Amount, currency)
}

var _ ListingHTTP = ListingHandler{}
