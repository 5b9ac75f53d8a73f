package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topup_system/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubService struct {
	createOrder  *domain.Order
	createQR     string
	createErr    error
	createAmount decimal.Decimal

	uploadErr  error
	uploadID   string
	uploadSlip *domain.SlipUpload
	uploadBody string

	orders    []domain.Order
	ordersErr error

	approveUser *domain.User
	approveErr  error

	buyUser  *domain.User
	buyErr   error
	buyPrice decimal.Decimal

	balanceUser *domain.User
	balanceErr  error

	ledger      []domain.Transaction
	ledgerErr   error
	ledgerEmail string
}

func (s *stubService) CreateOrder(_ context.Context, _ string, amount decimal.Decimal) (*domain.Order, string, error) {
	s.createAmount = amount
	return s.createOrder, s.createQR, s.createErr
}

func (s *stubService) UploadSlip(_ context.Context, id string, slip *domain.SlipUpload) error {
	s.uploadID = id
	s.uploadSlip = slip
	if slip != nil {
		if b, err := os.ReadFile(slip.Path); err == nil {
			s.uploadBody = string(b)
		}
	}
	return s.uploadErr
}

func (s *stubService) ListOrders(context.Context) ([]domain.Order, error) {
	return s.orders, s.ordersErr
}

func (s *stubService) ApproveOrder(context.Context, string) (*domain.User, error) {
	return s.approveUser, s.approveErr
}

func (s *stubService) Buy(_ context.Context, _ string, price decimal.Decimal) (*domain.User, error) {
	s.buyPrice = price
	return s.buyUser, s.buyErr
}

func (s *stubService) GetBalance(context.Context, string) (*domain.User, error) {
	return s.balanceUser, s.balanceErr
}

func (s *stubService) ListTransactions(_ context.Context, email string) ([]domain.Transaction, error) {
	s.ledgerEmail = email
	return s.ledger, s.ledgerErr
}

func newTestRouter(t *testing.T, svc TopupService) *gin.Engine {
	t.Helper()
	return NewRouter(svc, RouterConfig{TempDir: t.TempDir()})
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func TestLiveness(t *testing.T) {
	r := newTestRouter(t, &stubService{})
	rec := doJSON(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running", rec.Body.String())
}

func TestCreateOrder(t *testing.T) {
	order := &domain.Order{
		ID:             "o-1",
		Email:          "a@x.com",
		OriginalAmount: decimal.NewFromInt(100),
		FinalAmount:    decimal.RequireFromString("100.04"),
		Status:         domain.OrderStatusPending,
		CreatedAt:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name       string
		body       string
		svc        *stubService
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "numeric amount",
			body:       `{"email":"a@x.com","amount":100}`,
			svc:        &stubService{createOrder: order, createQR: "data:image/png;base64,AAA"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "string amount",
			body:       `{"email":"a@x.com","amount":"100"}`,
			svc:        &stubService{createOrder: order, createQR: "data:image/png;base64,AAA"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing amount",
			body:       `{"email":"a@x.com"}`,
			svc:        &stubService{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Missing data",
		},
		{
			name:       "missing email",
			body:       `{"amount":100}`,
			svc:        &stubService{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Missing data",
		},
		{
			name:       "garbage amount",
			body:       `{"email":"a@x.com","amount":"lots"}`,
			svc:        &stubService{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Missing data",
		},
		{
			name:       "service validation",
			body:       `{"email":"a@x.com","amount":0}`,
			svc:        &stubService{createErr: domain.ErrValidation},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Missing data",
		},
		{
			name:       "persistence failure",
			body:       `{"email":"a@x.com","amount":100}`,
			svc:        &stubService{createErr: domain.ErrPersistence},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(newTestRouter(t, tt.svc), http.MethodPost, "/create-order", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, message(t, rec))
				return
			}
			assert.True(t, tt.svc.createAmount.Equal(decimal.NewFromInt(100)))
			assert.JSONEq(t, `{
				"order": {
					"_id": "o-1",
					"email": "a@x.com",
					"originalAmount": 100,
					"finalAmount": 100.04,
					"status": "pending",
					"createdAt": "2026-05-01T00:00:00Z"
				},
				"qrCode": "data:image/png;base64,AAA"
			}`, rec.Body.String())
		})
	}
}

func multipartSlip(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file"))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadSlip(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		svcErr     error
		wantStatus int
		wantMsg    string
		wantFile   bool
	}{
		{name: "stored", field: "slip", wantStatus: http.StatusOK, wantMsg: "Slip uploaded", wantFile: true},
		{name: "unknown order", field: "slip", svcErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantMsg: "Order not found", wantFile: true},
		{name: "no file", field: "", svcErr: domain.ErrValidation, wantStatus: http.StatusBadRequest, wantMsg: "No file uploaded"},
		{name: "storage failure", field: "slip", svcErr: domain.ErrStorage, wantStatus: http.StatusInternalServerError, wantMsg: "Upload error", wantFile: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{uploadErr: tt.svcErr}
			tempDir := t.TempDir()
			r := NewRouter(svc, RouterConfig{TempDir: tempDir})

			body, contentType := multipartSlip(t, tt.field, "slip.png", "png-bytes")
			req := httptest.NewRequest(http.MethodPost, "/upload-slip/o-9", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, message(t, rec))
			assert.Equal(t, "o-9", svc.uploadID)
			if !tt.wantFile {
				assert.Nil(t, svc.uploadSlip)
				return
			}
			require.NotNil(t, svc.uploadSlip)
			assert.Equal(t, "slip.png", svc.uploadSlip.Filename)
			assert.Equal(t, tempDir, filepath.Dir(svc.uploadSlip.Path))
			assert.Equal(t, ".png", filepath.Ext(svc.uploadSlip.Path))
			assert.Equal(t, "png-bytes", svc.uploadBody)
		})
	}
}

func TestListOrders(t *testing.T) {
	newer := domain.Order{ID: "b", Status: domain.OrderStatusPending, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	older := domain.Order{ID: "a", Status: domain.OrderStatusApproved, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	rec := doJSON(newTestRouter(t, &stubService{orders: []domain.Order{newer, older}}), http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0]["_id"])
	assert.Equal(t, "a", got[1]["_id"])

	rec = doJSON(newTestRouter(t, &stubService{}), http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(newTestRouter(t, &stubService{ordersErr: domain.ErrPersistence}), http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error fetching orders", message(t, rec))
}

func TestApproveOrder(t *testing.T) {
	tests := []struct {
		name       string
		svc        *stubService
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "approved",
			svc:        &stubService{approveUser: &domain.User{Email: "a@x.com", Balance: decimal.NewFromInt(50)}},
			wantStatus: http.StatusOK,
			wantMsg:    "Order approved and balance updated",
		},
		{
			name:       "second approval",
			svc:        &stubService{approveErr: domain.ErrAlreadyApproved},
			wantStatus: http.StatusOK,
			wantMsg:    "Already approved",
		},
		{
			name:       "unknown order",
			svc:        &stubService{approveErr: domain.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Order not found",
		},
		{
			name:       "credit failed",
			svc:        &stubService{approveErr: errors.New("db down")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Error approving order",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(newTestRouter(t, tt.svc), http.MethodPost, "/approve/o-1", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, message(t, rec))
		})
	}
}

func TestBuy(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *stubService
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "success",
			body:       `{"email":"a@x.com","price":20}`,
			svc:        &stubService{buyUser: &domain.User{Email: "a@x.com", Balance: decimal.NewFromInt(30)}},
			wantStatus: http.StatusOK,
			wantMsg:    "Purchase successful",
		},
		{
			name:       "user not found",
			body:       `{"email":"ghost@x.com","price":20}`,
			svc:        &stubService{buyErr: domain.ErrUserNotFound},
			wantStatus: http.StatusOK,
			wantMsg:    "User not found",
		},
		{
			name:       "insufficient funds",
			body:       `{"email":"a@x.com","price":"999"}`,
			svc:        &stubService{buyErr: domain.ErrInsufficientFunds},
			wantStatus: http.StatusOK,
			wantMsg:    "Insufficient funds",
		},
		{
			name:       "missing price",
			body:       `{"email":"a@x.com"}`,
			svc:        &stubService{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Missing data",
		},
		{
			name:       "store failure",
			body:       `{"email":"a@x.com","price":1}`,
			svc:        &stubService{buyErr: domain.ErrPersistence},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Error buying",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(newTestRouter(t, tt.svc), http.MethodPost, "/buy", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, message(t, rec))
		})
	}
}

func TestGetBalance(t *testing.T) {
	svc := &stubService{balanceUser: &domain.User{Email: "a@x.com", Balance: decimal.RequireFromString("12.50")}}
	rec := doJSON(newTestRouter(t, svc), http.MethodGet, "/balance/a@x.com", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@x.com","balance":12.5}`, rec.Body.String())

	rec = doJSON(newTestRouter(t, &stubService{balanceErr: domain.ErrUserNotFound}), http.MethodGet, "/balance/x@x.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", message(t, rec))
}

func TestListTransactions(t *testing.T) {
	svc := &stubService{ledger: []domain.Transaction{{ID: "t1", Email: "a@x.com", Type: domain.TransactionTypeTopup, Amount: decimal.NewFromInt(50)}}}
	rec := doJSON(newTestRouter(t, svc), http.MethodGet, "/transactions?email=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", svc.ledgerEmail)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "topup", got[0]["type"])
	assert.Equal(t, float64(50), got[0]["amount"])
}

func TestStaticUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.png"), []byte("img"), 0o600))

	r := NewRouter(&stubService{}, RouterConfig{TempDir: t.TempDir(), UploadDir: dir})
	rec := doJSON(r, http.MethodGet, "/uploads/123.png", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "img", rec.Body.String())
}
