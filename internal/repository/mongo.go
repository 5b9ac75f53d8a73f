package repository

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"time"    // Timestamps

	"topup_system/internal/domain" // Importing domain models

	"github.com/google/uuid"                     // Record identifiers
	"github.com/shopspring/decimal"              // Exact money arithmetic
	"go.mongodb.org/mongo-driver/bson"           // Filters and updates
	"go.mongodb.org/mongo-driver/bson/primitive" // Decimal128
	"go.mongodb.org/mongo-driver/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/mongo/options"  // Query options
)

// Collection names
const (
	usersCollection        = "users"
	ordersCollection       = "orders"
	transactionsCollection = "transactions"
)

type orderDocument struct {
	ID             string               `bson:"_id"`
	Email          string               `bson:"email"`
	OriginalAmount primitive.Decimal128 `bson:"originalAmount"`
	FinalAmount    primitive.Decimal128 `bson:"finalAmount"`
	Status         string               `bson:"status"`
	Slip           string               `bson:"slip,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt"`
}

type userDocument struct {
	ID      string               `bson:"_id"`
	Email   string               `bson:"email"`
	Balance primitive.Decimal128 `bson:"balance"`
}

type transactionDocument struct {
	ID        string               `bson:"_id"`
	Email     string               `bson:"email"`
	OrderID   string               `bson:"orderId,omitempty"`
	Type      string               `bson:"type"`
	Amount    primitive.Decimal128 `bson:"amount"`
	CreatedAt time.Time            `bson:"createdAt"`
}

// MongoRepository keeps users, orders and the ledger in MongoDB collections
type MongoRepository struct {
	client       *mongo.Client
	users        *mongo.Collection
	orders       *mongo.Collection
	transactions *mongo.Collection
}

// NewMongoRepository binds the repository to a database on a connected client
func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	db := client.Database(dbName)
	return &MongoRepository{
		client:       client,
		users:        db.Collection(usersCollection),
		orders:       db.Collection(ordersCollection),
		transactions: db.Collection(transactionsCollection),
	}
}

// EnsureIndexes creates the unique email index and the sort indexes
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := r.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	if _, err := r.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("transactions index: %w", err)
	}
	return nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) decimal.Decimal {
	v, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero
	}
	return v
}

func (d orderDocument) toDomain() domain.Order {
	return domain.Order{
		ID:             d.ID,
		Email:          d.Email,
		OriginalAmount: fromDecimal128(d.OriginalAmount),
		FinalAmount:    fromDecimal128(d.FinalAmount),
		Status:         domain.OrderStatus(d.Status),
		Slip:           d.Slip,
		CreatedAt:      d.CreatedAt,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{ID: d.ID, Email: d.Email, Balance: fromDecimal128(d.Balance)}
}

func (d transactionDocument) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:        d.ID,
		Email:     d.Email,
		OrderID:   d.OrderID,
		Type:      d.Type,
		Amount:    fromDecimal128(d.Amount),
		CreatedAt: d.CreatedAt,
	}
}

// CreateOrder inserts a new order, assigning id and creation time when missing
func (r *MongoRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	original, err := toDecimal128(order.OriginalAmount)
	if err != nil {
		return persistence("create order", err)
	}
	final, err := toDecimal128(order.FinalAmount)
	if err != nil {
		return persistence("create order", err)
	}
	doc := orderDocument{
		ID:             order.ID,
		Email:          order.Email,
		OriginalAmount: original,
		FinalAmount:    final,
		Status:         string(order.Status),
		Slip:           order.Slip,
		CreatedAt:      order.CreatedAt,
	}
	if _, err := r.orders.InsertOne(ctx, doc); err != nil {
		return persistence("create order", err)
	}
	return nil
}

// GetOrder loads an order by id
func (r *MongoRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, persistence("get order", err)
	}
	order := doc.toDomain()
	return &order, nil
}

// ListOrders returns every order, newest first
func (r *MongoRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	cur, err := r.orders.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, persistence("list orders", err)
	}
	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, persistence("list orders", err)
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

// SetOrderSlip records the stored slip reference on an order
func (r *MongoRepository) SetOrderSlip(ctx context.Context, id, slip string) error {
	res, err := r.orders.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"slip": slip}})
	if err != nil {
		return persistence("set slip", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApproveOrder flips a pending order to approved, then credits the owner.
// The status update is a compare-and-set so a second approval never credits
// again. The credit is not in the same transaction: a failure after the
// status update leaves the order approved but uncredited.
func (r *MongoRepository) ApproveOrder(ctx context.Context, id string) (*domain.User, error) {
	var doc orderDocument
	err := r.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(domain.OrderStatusPending)},
		bson.M{"$set": bson.M{"status": string(domain.OrderStatusApproved)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, persistence("approve order", err)
		}
		if _, getErr := r.GetOrder(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrAlreadyApproved
	}

	var user userDocument
	err = r.users.FindOneAndUpdate(ctx,
		bson.M{"email": doc.Email},
		bson.M{
			"$inc":         bson.M{"balance": doc.OriginalAmount},
			"$setOnInsert": bson.M{"_id": uuid.NewString()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, persistence("credit user", err)
	}

	entry := transactionDocument{
		ID:        uuid.NewString(),
		Email:     doc.Email,
		OrderID:   doc.ID,
		Type:      domain.TransactionTypeTopup,
		Amount:    doc.OriginalAmount,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.transactions.InsertOne(ctx, entry); err != nil {
		return nil, persistence("record topup", err)
	}
	return user.toDomain(), nil
}

// GetUserByEmail loads a user by email
func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, persistence("get user", err)
	}
	return doc.toDomain(), nil
}

// Debit subtracts price from the user's balance if it covers it
func (r *MongoRepository) Debit(ctx context.Context, email string, price decimal.Decimal) (*domain.User, error) {
	if _, err := r.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	}
	amount, err := toDecimal128(price)
	if err != nil {
		return nil, persistence("debit", err)
	}
	negated, err := toDecimal128(price.Neg())
	if err != nil {
		return nil, persistence("debit", err)
	}

	var doc userDocument
	err = r.users.FindOneAndUpdate(ctx,
		bson.M{"email": email, "balance": bson.M{"$gte": amount}}, // Never overdraw
		bson.M{"$inc": bson.M{"balance": negated}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInsufficientFunds
		}
		return nil, persistence("debit", err)
	}

	entry := transactionDocument{
		ID:        uuid.NewString(),
		Email:     email,
		Type:      domain.TransactionTypePurchase,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.transactions.InsertOne(ctx, entry); err != nil {
		return nil, persistence("record purchase", err)
	}
	return doc.toDomain(), nil
}

// ListTransactions returns ledger rows newest first, optionally for one email
func (r *MongoRepository) ListTransactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}
	cur, err := r.transactions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, persistence("list transactions", err)
	}
	var docs []transactionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, persistence("list transactions", err)
	}
	entries := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.toDomain())
	}
	return entries, nil
}

// Close disconnects the client
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
