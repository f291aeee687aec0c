package model

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wishlist es una lista de referencias a productos.
//
// Documentos viejos guardaban [{product: <id>}]; al decodificar se normalizan
// a la forma actual y se reescriben en el próximo guardado (o con
// `deliveryctl migrate-wishlists`).
type Wishlist []primitive.ObjectID

func (w *Wishlist) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*w = nil
		return nil
	}
	if t != bsontype.Array {
		return fmt.Errorf("wishlist: tipo bson inesperado %s", t)
	}

	values, err := bson.Raw(data).Values()
	if err != nil {
		return err
	}

	out := make(Wishlist, 0, len(values))
	for _, v := range values {
		switch v.Type {
		case bsontype.ObjectID:
			out = append(out, v.ObjectID())
		case bsontype.EmbeddedDocument:
			if id, ok := v.Document().Lookup("product").ObjectIDOK(); ok {
				out = append(out, id)
			}
		case bsontype.Null:
			// producto borrado
		default:
			return fmt.Errorf("wishlist: elemento bson inesperado %s", v.Type)
		}
	}
	*w = out
	return nil
}

func (w Wishlist) Contains(id primitive.ObjectID) bool {
	for _, p := range w {
		if p == id {
			return true
		}
	}
	return false
}

// Without devuelve una copia sin el producto indicado.
func (w Wishlist) Without(id primitive.ObjectID) Wishlist {
	out := make(Wishlist, 0, len(w))
	for _, p := range w {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

// LegacyWishlistFilter encuentra usuarios cuyo wishlist todavía tiene la forma vieja.
var LegacyWishlistFilter = bson.M{"wishlist": bson.M{"$elemMatch": bson.M{"product": bson.M{"$exists": true}}}}
