package api

import (
	"errors"                       // Error inspection
	"net/http"                     // HTTP status codes
	"os"                           // Temp file cleanup
	"path/filepath"                // Temp file naming
	"topup_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/google/uuid"        // Temp file names
	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

// CreateOrderRequest represents a top-up request
type CreateOrderRequest struct {
	Email  string           `json:"email" binding:"required"`  // Purchaser email
	Amount *decimal.Decimal `json:"amount" binding:"required"` // Number or numeric string
}

// CreateOrderResponse carries the stored order and its payment QR code
type CreateOrderResponse struct {
	Order  *domain.Order `json:"order"`  // Pending order
	QRCode string        `json:"qrCode"` // data:image/png;base64,...
}

// CreateOrderHandler creates a pending order and returns its PromptPay QR code
func CreateOrderHandler(svc TopupService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, MessageResponse{Message: msgMissingData})
			return
		}
		order, qr, err := svc.CreateOrder(c.Request.Context(), req.Email, *req.Amount)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				c.JSON(http.StatusBadRequest, MessageResponse{Message: msgMissingData})
				return
			}
			logrus.WithFields(logrus.Fields{
				"email":  req.Email,           // Purchaser
				"amount": req.Amount.String(), // Requested amount
				"error":  err.Error(),         // Error message
			}).Error("Create order failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgServerError})
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id":     order.ID,                         // New order
			"email":        order.Email,                      // Purchaser
			"final_amount": order.FinalAmount.StringFixed(2), // Amount to transfer
		}).Info("Order created")
		c.JSON(http.StatusOK, CreateOrderResponse{Order: order, QRCode: qr})
	}
}

// UploadSlipHandler stores the payment slip of an order.
// The multipart field "slip" is staged in tempDir first.
func UploadSlipHandler(svc TopupService, tempDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id") // Order id from path
		var upload *domain.SlipUpload
		// A missing file is reported after the order lookup
		if file, err := c.FormFile("slip"); err == nil {
			tmp := filepath.Join(tempDir, uuid.NewString()+filepath.Ext(file.Filename))
			if err := c.SaveUploadedFile(file, tmp); err != nil {
				_ = os.Remove(tmp)
				logrus.WithFields(logrus.Fields{
					"order_id": id,          // Target order
					"error":    err.Error(), // Error message
				}).Error("Staging slip failed")
				c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgUploadError})
				return
			}
			upload = &domain.SlipUpload{Path: tmp, Filename: file.Filename}
		}
		err := svc.UploadSlip(c.Request.Context(), id, upload)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, MessageResponse{Message: msgOrderNotFound})
			return
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, MessageResponse{Message: msgNoFile})
			return
		default:
			logrus.WithFields(logrus.Fields{
				"order_id": id,          // Target order
				"error":    err.Error(), // Error message
			}).Error("Slip upload failed")
			c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgUploadError})
			return
		}
		logrus.WithField("order_id", id).Info("Slip uploaded")
		c.JSON(http.StatusOK, MessageResponse{Message: msgSlipUploaded})
	}
}
