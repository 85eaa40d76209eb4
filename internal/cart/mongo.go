package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB opens a pooled connection and verifies it with a ping.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// Mongo documents carry prices as strings; decimal.Decimal has no stable
// BSON representation.
type lineItemDoc struct {
	ProductID int64     `bson:"product_id"`
	Name      string    `bson:"name"`
	UnitPrice string    `bson:"unit_price"`
	Quantity  int       `bson:"quantity"`
	ImageRef  string    `bson:"image_ref,omitempty"`
	AddedAt   time.Time `bson:"added_at"`
}

type cartDoc struct {
	ID        string        `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	Items     []lineItemDoc `bson:"items"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func toDoc(c *Cart) *cartDoc {
	doc := &cartDoc{
		UserID:    c.UserID,
		Items:     make([]lineItemDoc, len(c.Items)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for i, item := range c.Items {
		doc.Items[i] = lineItemDoc{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
			AddedAt:   item.AddedAt,
		}
	}
	return doc
}

func fromDoc(doc *cartDoc) (*Cart, error) {
	c := &Cart{
		UserID:    doc.UserID,
		Items:     make([]LineItem, len(doc.Items)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for i, item := range doc.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid stored price %q for product %d: %w", item.UnitPrice, item.ProductID, err)
		}
		c.Items[i] = LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: price,
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
			AddedAt:   item.AddedAt,
		}
	}
	return c, nil
}

type mongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository stores carts in the "carts" collection, one document per
// user.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("carts")}
}

func (m *mongoRepository) GetCart(ctx context.Context, userID string) (*Cart, error) {
	var doc cartDoc

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return fromDoc(&doc)
}

// AddItem loads the document, applies the domain merge, and writes it back.
// The cart is a single per-user document, so read-modify-write keeps the
// merge semantics in one place instead of duplicating them in update
// operators.
func (m *mongoRepository) AddItem(ctx context.Context, userID string, item LineItem) error {
	now := time.Now()
	item.AddedAt = now

	c, err := m.GetCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		c = &Cart{UserID: userID, CreatedAt: now}
	} else if err != nil {
		return fmt.Errorf("failed to load cart for add: %w", err)
	}

	c.Add(item)
	c.UpdatedAt = now
	return m.upsert(ctx, c)
}

func (m *mongoRepository) UpdateItemQuantity(ctx context.Context, userID string, productID int64, quantity int) error {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}
	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now(),
		},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoRepository) RemoveItem(ctx context.Context, userID string, productID int64) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) upsert(ctx context.Context, c *Cart) error {
	filter := bson.M{"user_id": c.UserID}
	update := bson.M{"$set": toDoc(c)}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

// CreateIndexes sets up the unique user index and a 90 day TTL so abandoned
// carts expire.
func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
