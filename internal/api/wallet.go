package api

import (
	"errors"                       // Error inspection
	"net/http"                     // HTTP status codes
	"topup_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

// BuyRequest represents a purchase paid from the balance
type BuyRequest struct {
	Email string           `json:"email" binding:"required"` // Buyer email
	Price *decimal.Decimal `json:"price" binding:"required"` // Number or numeric string
}

// BalanceResponse is the public view of a user's balance
type BalanceResponse struct {
	Email   string          `json:"email"`   // User email
	Balance decimal.Decimal `json:"balance"` // Current balance
}

// BuyHandler debits the price from the buyer's balance.
// Unknown users and insufficient funds are reported with 200 and a message.
func BuyHandler(svc TopupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BuyRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, MessageResponse{Message: msgMissingData})
			return
		}
		user, err := svc.Buy(c.Request.Context(), req.Email, *req.Price)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, MessageResponse{Message: msgMissingData})
			return
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusOK, MessageResponse{Message: msgUserNotFound})
			return
		case errors.Is(err, domain.ErrInsufficientFunds):
			c.JSON(http.StatusOK, MessageResponse{Message: msgNoFunds})
			return
		default:
			logrus.WithFields(logrus.Fields{
				"email": req.Email,          // Buyer
				"price": req.Price.String(), // Requested debit
				"error": err.Error(),        // Error message
			}).Error("Purchase failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgBuyError})
			return
		}
		logrus.WithFields(logrus.Fields{
			"email":   user.Email,            // Buyer
			"price":   req.Price.String(),    // Debited amount
			"balance": user.Balance.String(), // Balance after debit
		}).Info("Purchase transaction")
		c.JSON(http.StatusOK, MessageResponse{Message: msgBought})
	}
}

// GetBalanceHandler returns the balance for the email in the path
func GetBalanceHandler(svc TopupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")
		user, err := svc.GetBalance(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, MessageResponse{Message: msgUserNotFound})
				return
			}
			logrus.WithFields(logrus.Fields{"email": email, "error": err.Error()}).Error("Get balance failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgBalanceError})
			return
		}
		c.JSON(http.StatusOK, BalanceResponse{Email: user.Email, Balance: user.Balance})
	}
}
