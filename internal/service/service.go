package service

import (
	"context"   // Request scoped cancellation
	"errors"    // Error inspection
	"fmt"       // Error wrapping
	"math/rand" // Reconciliation offset
	"os"        // Temp file cleanup
	"strings"   // Input trimming
	"time"      // Cache TTLs and timestamps

	"topup_system/internal/domain" // Importing domain models
	"topup_system/internal/utils"  // Cache helpers

	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money arithmetic
	"github.com/sirupsen/logrus"    // Logging library
)

const (
	ordersCacheTTL  = 30 * time.Second // Admin order list
	balanceCacheTTL = 60 * time.Second // Per user balance view
)

// Repository is the persistence contract used by the service
type Repository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	SetOrderSlip(ctx context.Context, id, slip string) error
	ApproveOrder(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	Debit(ctx context.Context, email string, price decimal.Decimal) (*domain.User, error)
	ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error)
}

// SlipStore moves an uploaded slip into permanent storage and returns a
// reference to it (file name or URL)
type SlipStore interface {
	Save(ctx context.Context, tempPath, filename string) (string, error)
}

// QRGenerator renders a payment QR code for an amount
type QRGenerator interface {
	DataURL(amount decimal.Decimal) (string, error)
}

// Service holds the order and balance logic
type Service struct {
	repo   Repository
	slips  SlipStore
	qr     QRGenerator
	rdb    *redis.Client    // nil disables caching
	offset func() int64     // Satang added to the final amount
	now    func() time.Time // Clock for order timestamps
}

// NewService wires the collaborators, rdb may be nil
func NewService(repo Repository, slips SlipStore, qr QRGenerator, rdb *redis.Client) *Service {
	return &Service{
		repo:   repo,
		slips:  slips,
		qr:     qr,
		rdb:    rdb,
		offset: randomSatang,
		now:    time.Now,
	}
}

// randomSatang picks the reconciliation offset in satang, 1 to 9
func randomSatang() int64 {
	return rand.Int63n(9) + 1
}

// CreateOrder stores a pending order whose final amount carries a random
// 0.01-0.09 offset and returns it with the QR code for that final amount
func (s *Service) CreateOrder(ctx context.Context, email string, amount decimal.Decimal) (*domain.Order, string, error) {
	email = strings.TrimSpace(email)
	amount = amount.Round(2) // Satang precision, checked after rounding
	if email == "" || !amount.IsPositive() {
		return nil, "", fmt.Errorf("%w: email and a positive amount are required", domain.ErrValidation)
	}

	order := &domain.Order{
		Email:          email,
		OriginalAmount: amount,
		FinalAmount:    amount.Add(decimal.New(s.offset(), -2)).Round(2),
		Status:         domain.OrderStatusPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, "", err
	}
	s.invalidate(ctx, utils.OrdersCacheKey)

	qr, err := s.qr.DataURL(order.FinalAmount) // QR pins the offset amount
	if err != nil {
		return nil, "", fmt.Errorf("qr code: %w", err)
	}
	return order, qr, nil
}

// UploadSlip stores the slip of an existing order, the temporary upload is
// removed whatever the outcome
func (s *Service) UploadSlip(ctx context.Context, id string, slip *domain.SlipUpload) error {
	if slip != nil {
		defer s.discard(slip.Path)
	}
	if _, err := s.repo.GetOrder(ctx, id); err != nil {
		return err
	}
	if slip == nil {
		return fmt.Errorf("%w: no slip attached", domain.ErrValidation)
	}

	ref, err := s.slips.Save(ctx, slip.Path, slip.Filename)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := s.repo.SetOrderSlip(ctx, id, ref); err != nil {
		return err
	}
	s.invalidate(ctx, utils.OrdersCacheKey)
	return nil
}

func (s *Service) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithFields(logrus.Fields{"path": path, "error": err.Error()}).Warn("Failed to remove temp upload")
	}
}

// ListOrders returns all orders, newest first
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return cached(ctx, s.rdb, utils.OrdersCacheKey, ordersCacheTTL, func() ([]domain.Order, error) {
		return s.repo.ListOrders(ctx)
	})
}

// ApproveOrder approves a pending order and credits its original amount.
// Approving twice returns ErrAlreadyApproved and credits nothing.
func (s *Service) ApproveOrder(ctx context.Context, id string) (*domain.User, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsApproved() {
		return nil, domain.ErrAlreadyApproved // Fast path, the repository re-checks atomically
	}

	user, err := s.repo.ApproveOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, utils.OrdersCacheKey, utils.BalanceCacheKey(order.Email))
	return user, nil
}

// Buy debits price from the user's balance
func (s *Service) Buy(ctx context.Context, email string, price decimal.Decimal) (*domain.User, error) {
	email = strings.TrimSpace(email)
	price = price.Round(2) // Satang precision, checked after rounding
	if email == "" || !price.IsPositive() {
		return nil, fmt.Errorf("%w: email and a positive price are required", domain.ErrValidation)
	}

	user, err := s.repo.Debit(ctx, email, price)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, utils.BalanceCacheKey(email))
	return user, nil
}

// GetBalance returns the user record for email
func (s *Service) GetBalance(ctx context.Context, email string) (*domain.User, error) {
	return cached(ctx, s.rdb, utils.BalanceCacheKey(email), balanceCacheTTL, func() (*domain.User, error) {
		return s.repo.GetUserByEmail(ctx, email)
	})
}

// ListTransactions returns the ledger, optionally for one email
func (s *Service) ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, strings.TrimSpace(email))
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := utils.DeleteCache(ctx, s.rdb, keys...); err != nil {
		logrus.WithFields(logrus.Fields{"keys": keys, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}

// cached serves key from Redis or fills it from load. Cache failures are
// logged and never fail the read.
func cached[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var hit T
	found, err := utils.GetCache(ctx, rdb, key, &hit)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
	}
	if found {
		return hit, nil
	}

	// Version is read before loading so a concurrent invalidation wins
	version, verr := utils.CacheVersion(ctx, rdb, key)
	value, err := load()
	if err != nil {
		return value, err
	}
	if verr != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": verr.Error()}).Warn("Cache version read failed")
		return value, nil
	}
	if _, err := utils.SetCache(ctx, rdb, key, version, value, ttl); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
	return value, nil
}
