package api

import (
	"errors"                       // Error inspection
	"net/http"                     // HTTP status codes
	"topup_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// ListOrdersHandler returns every order, newest first
func ListOrdersHandler(svc TopupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.ListOrders(c.Request.Context())
		if err != nil {
			logrus.WithError(err).Error("List orders failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgFetchOrders})
			return
		}
		if orders == nil {
			orders = []domain.Order{} // Render [] rather than null
		}
		c.JSON(http.StatusOK, orders)
	}
}

// ApproveOrderHandler approves an order and credits the owner's balance
func ApproveOrderHandler(svc TopupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id") // Order id from path
		user, err := svc.ApproveOrder(c.Request.Context(), id)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, MessageResponse{Message: msgOrderNotFound})
			return
		case errors.Is(err, domain.ErrAlreadyApproved):
			c.JSON(http.StatusOK, MessageResponse{Message: msgAlreadyApproved})
			return
		default:
			logrus.WithFields(logrus.Fields{
				"order_id": id,          // Target order
				"error":    err.Error(), // Error message
			}).Error("Approve order failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgApproveError})
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id": id,                    // Approved order
			"email":    user.Email,            // Credited user
			"balance":  user.Balance.String(), // Balance after credit
		}).Info("Order approved")
		c.JSON(http.StatusOK, MessageResponse{Message: msgApproved})
	}
}

// ListTransactionsHandler returns the balance ledger, optionally filtered by ?email=
func ListTransactionsHandler(svc TopupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.ListTransactions(c.Request.Context(), c.Query("email"))
		if err != nil {
			logrus.WithError(err).Error("List transactions failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgFetchLedger})
			return
		}
		if entries == nil {
			entries = []domain.Transaction{}
		}
		c.JSON(http.StatusOK, entries)
	}
}
