package repository

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping

	"topup_system/internal/domain" // Importing domain models

	"github.com/google/uuid"        // Record identifiers
	"github.com/shopspring/decimal" // Exact money arithmetic
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Upsert clauses
)

// GormRepository stores users, orders and the ledger in a SQL database
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository wraps an open gorm connection
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

// CreateOrder inserts a new order, assigning an id when missing
func (r *GormRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return persistence("create order", err)
	}
	return nil
}

// GetOrder loads an order by id
func (r *GormRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, persistence("get order", err)
	}
	return &order, nil
}

// ListOrders returns every order, newest first
func (r *GormRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders := []domain.Order{}
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, persistence("list orders", err)
	}
	return orders, nil
}

// SetOrderSlip records the stored slip reference on an order
func (r *GormRepository) SetOrderSlip(ctx context.Context, id, slip string) error {
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("slip", slip).Error
	if err != nil {
		return persistence("set slip", err)
	}
	return nil
}

// ApproveOrder flips a pending order to approved and credits its original
// amount to the owner in one transaction. A concurrent approval that lost the
// status update gets ErrAlreadyApproved and credits nothing.
func (r *GormRepository) ApproveOrder(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		// Compare-and-set on status
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", id, domain.OrderStatusPending).
			Update("status", domain.OrderStatusApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyApproved
		}
		// Create the user on first approval, a concurrent insert for the same email is ignored
		fresh := domain.User{ID: uuid.NewString(), Email: order.Email, Balance: decimal.Zero}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
			return err
		}
		// Credit the pre-offset amount
		if err := tx.Model(&domain.User{}).Where("email = ?", order.Email).
			Update("balance", gorm.Expr("balance + ?", order.OriginalAmount)).Error; err != nil {
			return err
		}
		entry := domain.Transaction{
			ID:      uuid.NewString(),
			Email:   order.Email,
			OrderID: order.ID,
			Type:    domain.TransactionTypeTopup,
			Amount:  order.OriginalAmount,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", order.Email).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyApproved) {
			return nil, err
		}
		return nil, persistence("approve order", err)
	}
	return &user, nil
}

// GetUserByEmail loads a user by email
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, persistence("get user", err)
	}
	return &user, nil
}

// Debit subtracts price from the user's balance if it covers it
func (r *GormRepository) Debit(ctx context.Context, email string, price decimal.Decimal) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		// The balance guard lives in the UPDATE so concurrent debits cannot overdraw
		res := tx.Model(&domain.User{}).
			Where("id = ? AND balance >= ?", user.ID, price).
			Update("balance", gorm.Expr("balance - ?", price))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientFunds
		}
		entry := domain.Transaction{
			ID:     uuid.NewString(),
			Email:  email,
			Type:   domain.TransactionTypePurchase,
			Amount: price,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", user.ID).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, persistence("debit", err)
	}
	return &user, nil
}

// ListTransactions returns ledger rows newest first, optionally for one email
func (r *GormRepository) ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	entries := []domain.Transaction{}
	q := r.db.WithContext(ctx).Order("created_at desc")
	if email != "" {
		q = q.Where("email = ?", email)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, persistence("list transactions", err)
	}
	return entries, nil
}

// Close releases the underlying connection pool
func (r *GormRepository) Close(context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
