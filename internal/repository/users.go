package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tasty-burger-backend/internal/model"
)

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection(usersCollection)}
}

// ProfileUpdate sólo aplica los campos no nil.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	Phone       *string
	DateOfBirth *time.Time
}

func (m *MongoUserRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.Cart == nil {
		u.Cart = []model.CartItem{}
	}
	if u.Wishlist == nil {
		u.Wishlist = model.Wishlist{}
	}
	if u.Addresses == nil {
		u.Addresses = []model.Address{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := m.col.InsertOne(ctx, u)
	return mapWriteErr(err)
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (m *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := m.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[model.User](ctx, cur)
}

func (m *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) (*model.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.DateOfBirth != nil {
		set["dateOfBirth"] = p.DateOfBirth.UTC()
	}
	return m.findOneAndSet(ctx, id, set)
}

// AddToCart suma cantidad si el producto ya está en el carrito; si no, lo agrega.
func (m *MongoUserRepository) AddToCart(ctx context.Context, id, productID primitive.ObjectID, qty int) error {
	// PASO 1: incrementar el item existente
	r1, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "cart.product": productID},
		bson.M{
			"$inc": bson.M{"cart.$.quantity": qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if r1.MatchedCount > 0 {
		return nil
	}

	// PASO 2: pushear uno nuevo
	r2, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "cart.product": bson.M{"$ne": productID}},
		bson.M{
			"$push": bson.M{"cart": model.CartItem{ProductID: productID, Quantity: qty}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if r2.MatchedCount == 0 {
		// o no existe el usuario o alguien agregó el producto entre los dos pasos
		if _, err := m.FindByID(ctx, id); err != nil {
			return err
		}
		return m.AddToCart(ctx, id, productID, qty)
	}
	return nil
}

func (m *MongoUserRepository) RemoveFromCart(ctx context.Context, id, productID primitive.ObjectID) error {
	return m.updateByID(ctx, id, bson.M{
		"$pull": bson.M{"cart": bson.M{"product": productID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (m *MongoUserRepository) ClearCart(ctx context.Context, id primitive.ObjectID) error {
	return m.updateByID(ctx, id, bson.M{"$set": bson.M{
		"cart":      []model.CartItem{},
		"updatedAt": time.Now().UTC(),
	}})
}

// SetWishlist guarda siempre la forma normalizada.
func (m *MongoUserRepository) SetWishlist(ctx context.Context, id primitive.ObjectID, w model.Wishlist) error {
	if w == nil {
		w = model.Wishlist{}
	}
	return m.updateByID(ctx, id, bson.M{"$set": bson.M{
		"wishlist":  []primitive.ObjectID(w),
		"updatedAt": time.Now().UTC(),
	}})
}

func (m *MongoUserRepository) SetAddresses(ctx context.Context, id primitive.ObjectID, addrs []model.Address) error {
	if addrs == nil {
		addrs = []model.Address{}
	}
	return m.updateByID(ctx, id, bson.M{"$set": bson.M{
		"addresses": addrs,
		"updatedAt": time.Now().UTC(),
	}})
}

// MigrateWishlists reescribe los wishlists que aún tienen la forma vieja.
// Devuelve cuántos usuarios se actualizaron.
func (m *MongoUserRepository) MigrateWishlists(ctx context.Context) (int, error) {
	cur, err := m.col.Find(ctx, model.LegacyWishlistFilter, options.Find().SetProjection(bson.M{"wishlist": 1}))
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	migrated := 0
	for cur.Next(ctx) {
		var doc struct {
			ID       primitive.ObjectID `bson:"_id"`
			Wishlist model.Wishlist     `bson:"wishlist"`
		}
		if err := cur.Decode(&doc); err != nil {
			return migrated, err
		}
		if err := m.SetWishlist(ctx, doc.ID, doc.Wishlist); err != nil {
			return migrated, err
		}
		migrated++
	}
	return migrated, cur.Err()
}

func (m *MongoUserRepository) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoUserRepository) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u model.User
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return &u, nil
}
