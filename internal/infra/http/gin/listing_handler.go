package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	listingapp "gearshare/internal/app/handlers/listing"
)

type ListingHandler struct {
	Commands commands.Bus
}

type createListingRequest struct {
	Title          string                        `json:"title"`
	PriceType      string                        `json:"price_type"`
	PricePerDay    int64                         `json:"price_per_day"`
	PricePerHour   int64                         `json:"price_per_hour"`
	Currency       string                        `json:"currency"`
	DepositPercent int64                         `json:"deposit_percent"`
	Schedule       map[string]scheduleDayRequest `json:"schedule"`
}

type scheduleDayRequest struct {
	Enabled bool        `json:"enabled"`
	Slots   [][2]string `json:"slots"`
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingapp.CreateListingCommand{
		CommandID:      generateCommandID(),
		OwnerID:        user,
		Title:          req.Title,
		PriceType:      req.PriceType,
		PricePerDay:    req.PricePerDay,
		PricePerHour:   req.PricePerHour,
		Currency:       req.Currency,
		DepositPercent: req.DepositPercent,
	}
	if len(req.Schedule) > 0 {
		cmd.Schedule = make(map[string]listingapp.ScheduleDayInput, len(req.Schedule))
		for name, day := range req.Schedule {
			cmd.Schedule[name] = listingapp.ScheduleDayInput{Enabled: day.Enabled, Slots: day.Slots}
		}
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *listingapp.CreateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ ListingHTTP = ListingHandler{}
