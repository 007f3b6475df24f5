package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/krush/market-core/internal/core/domain"
)

const collectionProducts = "products"

// ProductRepository reads products and mutates the fields this core owns:
// seller edits and the embedded like-set.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(collectionProducts)}
}

type mongoProduct struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	SellerID  primitive.ObjectID   `bson:"seller_id"`
	Title     string               `bson:"title"`
	Price     int64                `bson:"price"`
	Status    string               `bson:"status"`
	Images    []string             `bson:"images"`
	Likes     []primitive.ObjectID `bson:"likes"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func (m *mongoProduct) toDomain() *domain.Product {
	return &domain.Product{
		ID:        m.ID.Hex(),
		SellerID:  m.SellerID.Hex(),
		Title:     m.Title,
		Price:     m.Price,
		Status:    domain.ProductStatus(m.Status),
		Images:    m.Images,
		Likes:     hexes(m.Likes),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// FindByID retrieves a product by id.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := objectID(productID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoProduct
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return m.toDomain(), nil
}

// Summaries loads title, price and first image for each id in one query.
func (r *ProductRepository) Summaries(ctx context.Context, productIDs []string) (map[string]domain.ProductSummary, error) {
	out := make(map[string]domain.ProductSummary, len(productIDs))
	ids := objectIDs(productIDs)
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"title": 1, "price": 1, "images": bson.M{"$slice": 1}})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("product summaries: %w", err)
	}
	var docs []mongoProduct
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("product summaries: decode: %w", err)
	}

	for i := range docs {
		p := docs[i].toDomain()
		out[p.ID] = p.Summary()
	}
	return out, nil
}

// Update applies patch to a product owned by sellerID and returns the
// document as it was before the write, so old and new values come from the
// same atomic operation.
func (r *ProductRepository) Update(ctx context.Context, productID, sellerID string, patch domain.ProductPatch, at time.Time) (*domain.Product, error) {
	id, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	seller, err := objectID(sellerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": at}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var m mongoProduct
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "seller_id": seller}, bson.M{"$set": set}, opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return m.toDomain(), nil
}

// ToggleLike flips userID's membership with a single pipeline update, so the
// like-set never holds the same user twice even under concurrent toggles.
func (r *ProductRepository) ToggleLike(ctx context.Context, productID, userID string) (domain.LikeState, error) {
	id, err := objectID(productID)
	if err != nil {
		return domain.LikeState{}, err
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.LikeState{}, fmt.Errorf("malformed user id %q: %w", userID, domain.ErrInvalidContent)
	}

	pipeline := toggleLikePipeline(uid)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})

	var m mongoProduct
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.LikeState{}, domain.ErrNotFound
		}
		return domain.LikeState{}, fmt.Errorf("toggle like: %w", err)
	}

	return m.toDomain().LikeState(userID), nil
}

// toggleLikePipeline removes uid from likes when present and appends it
// otherwise. Removal goes through $setDifference, which also collapses any
// duplicate that a legacy write may have left behind.
func toggleLikePipeline(uid primitive.ObjectID) mongo.Pipeline {
	likes := bson.D{{Key: "$ifNull", Value: bson.A{"$likes", bson.A{}}}}
	toggled := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$in", Value: bson.A{uid, likes}}},
		bson.D{{Key: "$setDifference", Value: bson.A{likes, bson.A{uid}}}},
		bson.D{{Key: "$concatArrays", Value: bson.A{likes, bson.A{uid}}}},
	}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "likes", Value: toggled}}}},
	}
}

// Likers returns the like-set of a product.
func (r *ProductRepository) Likers(ctx context.Context, productID string) ([]string, error) {
	id, err := objectID(productID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoProduct
	opts := options.FindOne().SetProjection(bson.M{"likes": 1})
	if err := r.col.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load likers: %w", err)
	}
	return hexes(m.Likes), nil
}

// EnsureIndexes creates the seller and like-set indexes.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seller_id", Value: 1}}},
		{Keys: bson.D{{Key: "likes", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
