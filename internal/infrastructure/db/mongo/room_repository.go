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

const collectionRooms = "chat_rooms"

// RoomRepository stores chat rooms with their message log embedded.
type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection(collectionRooms)}
}

type mongoMessage struct {
	ID        primitive.ObjectID `bson:"_id"`
	SenderID  primitive.ObjectID `bson:"sender_id"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
}

type mongoRoom struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProductID primitive.ObjectID `bson:"product_id"`
	BuyerID   primitive.ObjectID `bson:"buyer_id"`
	SellerID  primitive.ObjectID `bson:"seller_id"`
	Messages  []mongoMessage     `bson:"messages"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m *mongoRoom) toDomain() *domain.ChatRoom {
	room := &domain.ChatRoom{
		ID:        m.ID.Hex(),
		ProductID: m.ProductID.Hex(),
		BuyerID:   m.BuyerID.Hex(),
		SellerID:  m.SellerID.Hex(),
		Messages:  make([]domain.Message, len(m.Messages)),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	for i, msg := range m.Messages {
		room.Messages[i] = domain.Message{
			ID:        msg.ID.Hex(),
			SenderID:  msg.SenderID.Hex(),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.UTC(),
		}
	}
	return room
}

type roomKeyIDs struct {
	product, buyer, seller primitive.ObjectID
}

func parseKey(key domain.RoomKey) (roomKeyIDs, error) {
	var ids roomKeyIDs
	var err error
	if ids.product, err = objectID(key.ProductID); err != nil {
		return ids, err
	}
	if ids.buyer, err = objectID(key.BuyerID); err != nil {
		return ids, err
	}
	if ids.seller, err = objectID(key.SellerID); err != nil {
		return ids, err
	}
	return ids, nil
}

func (k roomKeyIDs) filter() bson.M {
	return bson.M{"product_id": k.product, "buyer_id": k.buyer, "seller_id": k.seller}
}

// FindByKey retrieves the room for a (product, buyer, seller) triple.
func (r *RoomRepository) FindByKey(ctx context.Context, key domain.RoomKey) (*domain.ChatRoom, error) {
	ids, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, ids.filter())
}

// FindByID retrieves a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	id, err := objectID(roomID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RoomRepository) findOne(ctx context.Context, filter bson.M) (*domain.ChatRoom, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoRoom
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find room: %w", err)
	}
	return m.toDomain(), nil
}

// Insert stores a new room. The unique index on (product_id, buyer_id,
// seller_id) turns a concurrent duplicate into domain.ErrConflict.
func (r *RoomRepository) Insert(ctx context.Context, room *domain.ChatRoom) error {
	ids, err := parseKey(room.Key())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoRoom{
		ID:        primitive.NewObjectID(),
		ProductID: ids.product,
		BuyerID:   ids.buyer,
		SellerID:  ids.seller,
		Messages:  []mongoMessage{},
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return insertRoomError(err)
	}

	room.ID = doc.ID.Hex()
	return nil
}

// ListByParticipant returns rooms where userID is buyer or seller, most
// recently updated first.
func (r *RoomRepository) ListByParticipant(ctx context.Context, userID string) ([]*domain.ChatRoom, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []*domain.ChatRoom{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{bson.M{"buyer_id": id}, bson.M{"seller_id": id}}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	var docs []mongoRoom
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list rooms: decode: %w", err)
	}

	rooms := make([]*domain.ChatRoom, len(docs))
	for i := range docs {
		rooms[i] = docs[i].toDomain()
	}
	return rooms, nil
}

// AppendMessage pushes msg in a single atomic update and returns the room
// after the write.
func (r *RoomRepository) AppendMessage(ctx context.Context, roomID string, msg *domain.Message) (*domain.ChatRoom, error) {
	id, err := objectID(roomID)
	if err != nil {
		return nil, err
	}
	senderID, err := primitive.ObjectIDFromHex(msg.SenderID)
	if err != nil {
		return nil, fmt.Errorf("malformed sender id %q: %w", msg.SenderID, domain.ErrInvalidContent)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entry := mongoMessage{
		ID:        primitive.NewObjectID(),
		SenderID:  senderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	update := bson.M{
		"$push": bson.M{"messages": entry},
		"$set":  bson.M{"updated_at": msg.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m mongoRoom
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("append message: %w", err)
	}

	msg.ID = entry.ID.Hex()
	return m.toDomain(), nil
}

// EnsureIndexes creates the uniqueness constraint and the participant indexes
// used by the room list.
func (r *RoomRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, roomIndexes())
	return err
}

const roomKeyIndex = "uniq_product_buyer_seller"

func roomIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "buyer_id", Value: 1},
				{Key: "seller_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName(roomKeyIndex),
		},
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	}
}

// insertRoomError maps a rejected insert. A duplicate key means another
// request created the same room first.
func insertRoomError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrConflict
	}
	return fmt.Errorf("insert room: %w", err)
}
