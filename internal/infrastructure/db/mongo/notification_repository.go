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

const collectionNotifications = "notifications"

// NotificationRepository stores inbox entries, one document per recipient.
type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications)}
}

type mongoNotification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	RecipientID primitive.ObjectID  `bson:"recipient_id"`
	Kind        string              `bson:"kind"`
	Title       string              `bson:"title"`
	Message     string              `bson:"message"`
	ProductID   primitive.ObjectID  `bson:"product_id"`
	ChatRoomID  *primitive.ObjectID `bson:"chat_room_id,omitempty"`
	Read        bool                `bson:"read"`
	CreatedAt   time.Time           `bson:"created_at"`
}

func (m *mongoNotification) toDomain() *domain.Notification {
	n := &domain.Notification{
		ID:          m.ID.Hex(),
		RecipientID: m.RecipientID.Hex(),
		Kind:        domain.NotificationKind(m.Kind),
		Title:       m.Title,
		Message:     m.Message,
		ProductID:   m.ProductID.Hex(),
		Read:        m.Read,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if m.ChatRoomID != nil {
		n.ChatRoomID = m.ChatRoomID.Hex()
	}
	return n
}

// Insert stores a notification and sets its ID.
func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	recipient, err := objectID(n.RecipientID)
	if err != nil {
		return err
	}
	product, err := objectID(n.ProductID)
	if err != nil {
		return err
	}

	doc := mongoNotification{
		ID:          primitive.NewObjectID(),
		RecipientID: recipient,
		Kind:        string(n.Kind),
		Title:       n.Title,
		Message:     n.Message,
		ProductID:   product,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
	if n.ChatRoomID != "" {
		room, err := objectID(n.ChatRoomID)
		if err != nil {
			return err
		}
		doc.ChatRoomID = &room
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	n.ID = doc.ID.Hex()
	return nil
}

// ListByRecipient returns at most limit notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domain.Notification, error) {
	recipient, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return []*domain.Notification{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"recipient_id": recipient}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var docs []mongoNotification
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list notifications: decode: %w", err)
	}

	out := make([]*domain.Notification, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}

// MarkRead sets the read flag. The filter includes the recipient, so another
// user's notification is indistinguishable from a missing one.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error) {
	id, err := objectID(notificationID)
	if err != nil {
		return nil, err
	}
	recipient, err := objectID(recipientID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m mongoNotification
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "recipient_id": recipient},
		bson.M{"$set": bson.M{"read": true}},
		opts,
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return m.toDomain(), nil
}

// CountUnread groups the recipient's unread notifications by kind.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (domain.UnreadCounts, error) {
	var counts domain.UnreadCounts
	recipient, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return counts, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "recipient_id", Value: recipient}, {Key: "read", Value: false}}}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$kind"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return counts, fmt.Errorf("count unread: %w", err)
	}

	var rows []struct {
		Kind  string `bson:"_id"`
		Count int    `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return counts, fmt.Errorf("count unread: decode: %w", err)
	}
	for _, row := range rows {
		counts.Add(domain.NotificationKind(row.Kind), row.Count)
	}
	return counts, nil
}

// EnsureIndexes creates the inbox listing and unread-count indexes.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}, {Key: "kind", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
