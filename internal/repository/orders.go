package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tasty-burger-backend/internal/model"
)

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection(ordersCollection)}
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, o)
	return mapWriteErr(err)
}

func (m *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoOrderRepository) FindByMerchantTxnID(ctx context.Context, merchantTxnID string) (*model.Order, error) {
	return m.findOne(ctx, bson.M{"merchantTransactionId": merchantTxnID})
}

func (m *MongoOrderRepository) findOne(ctx context.Context, filter bson.M) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, filter).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FindByUserID devuelve las órdenes del usuario, más nuevas primero.
// limit <= 0 significa sin límite.
func (m *MongoOrderRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]*model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Order](ctx, cur)
}

// CountByUserID cuenta las órdenes del usuario; status vacío cuenta todas.
func (m *MongoOrderRepository) CountByUserID(ctx context.Context, userID primitive.ObjectID, status model.OrderStatus) (int64, error) {
	filter := bson.M{"user": userID}
	if status != "" {
		filter["status"] = status
	}
	return m.col.CountDocuments(ctx, filter)
}

// FindAll lista todas las órdenes; status vacío no filtra.
func (m *MongoOrderRepository) FindAll(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := m.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Order](ctx, cur)
}

// UpdateStatus cambia el estado logístico (uso admin).
func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}}

	var res model.Order
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// StampPaymentAttempt marca la orden como pago por gateway con un nuevo
// merchantTransactionId. Sólo aplica si el pago sigue pending; si no, ErrConflict.
// Un merchantTransactionId repetido devuelve ErrDuplicate.
func (m *MongoOrderRepository) StampPaymentAttempt(ctx context.Context, id primitive.ObjectID, merchantTxnID string) error {
	filter := bson.M{
		"_id":           id,
		"paymentStatus": model.PaymentPending,
	}
	update := bson.M{"$set": bson.M{
		"paymentMethod":         model.PaymentGateway,
		"merchantTransactionId": merchantTxnID,
		"paymentStatus":         model.PaymentPending,
		"updatedAt":             time.Now().UTC(),
	}}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// ApplyPaymentTransition es un compare-and-set: sólo modifica la orden si su
// paymentStatus sigue en pending. Devuelve false si no había nada que aplicar.
func (m *MongoOrderRepository) ApplyPaymentTransition(ctx context.Context, merchantTxnID string, t model.PaymentTransition) (bool, error) {
	filter := bson.M{
		"merchantTransactionId": merchantTxnID,
		"paymentStatus":         model.PaymentPending,
	}

	set := bson.M{
		"paymentStatus": t.PaymentStatus,
		"status":        t.Status,
		"updatedAt":     time.Now().UTC(),
	}
	if t.PaymentStatus == model.PaymentCompleted {
		set["isPaid"] = true
		set["gatewayTransactionId"] = t.GatewayTransactionID
		if t.PaidAt != nil {
			set["paidAt"] = t.PaidAt.UTC()
		}
	}

	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// FindStalePending busca pagos por gateway que siguen pending desde antes de cutoff.
func (m *MongoOrderRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int64) ([]*model.Order, error) {
	filter := bson.M{
		"paymentMethod":         model.PaymentGateway,
		"paymentStatus":         model.PaymentPending,
		"merchantTransactionId": bson.M{"$exists": true, "$ne": ""},
		"updatedAt":             bson.M{"$lt": cutoff.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Order](ctx, cur)
}
