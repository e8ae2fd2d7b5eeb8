package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	rentalapp "gearshare/internal/app/handlers/rental"
)

type RentalHandler struct {
	Commands commands.Bus
}

type createRentalRequest struct {
	ListingID  string    `json:"listing_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	TotalPrice int64     `json:"total_price"`
	Currency   string    `json:"currency"`
}

func (h RentalHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalapp.RequestRentalCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		RenterID:        user,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TotalPrice:      req.TotalPrice,
		Currency:        req.Currency,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalapp.RequestRentalCommand, *rentalapp.RequestRentalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

type cancelRentalRequest struct {
	Reason string `json:"reason"`
}

func (h RentalHandler) Cancel(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req cancelRentalRequest
	_ = c.ShouldBindJSON(&req)
	cmd := rentalapp.CancelRentalCommand{
		RentalID:    c.Param("id"),
		RequestedBy: user,
		Reason:      req.Reason,
	}
	result, err := commands.Dispatch[rentalapp.CancelRentalCommand, *rentalapp.CancelRentalResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) Start(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := rentalapp.StartRentalCommand{RentalID: c.Param("id"), RequestedBy: user}
	result, err := commands.Dispatch[rentalapp.StartRentalCommand, *rentalapp.ProgressResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) Complete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	cmd := rentalapp.CompleteRentalCommand{RentalID: c.Param("id"), RequestedBy: user}
	result, err := commands.Dispatch[rentalapp.CompleteRentalCommand, *rentalapp.ProgressResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ RentalHTTP = RentalHandler{}
