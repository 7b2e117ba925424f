// Package notifstore is the MongoDB-backed notification store: an append-only
// log of user-facing notifications, independent of the order ledger.
package notifstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flash-food/internal/apperr"
	"flash-food/internal/models"
)

const collectionName = "notifications"

// Store persists notification records in MongoDB.
type Store struct {
	coll *mongo.Collection
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(collectionName)}
}

type notificationDoc struct {
	ID        primitive.ObjectID      `bson:"_id,omitempty"`
	UserID    int64                   `bson:"user_id"`
	Title     string                  `bson:"title"`
	Body      string                  `bson:"body"`
	Type      models.NotificationType `bson:"type"`
	OrderID   *int64                  `bson:"order_id,omitempty"`
	Status    *models.OrderStatus     `bson:"status,omitempty"`
	Reason    *string                 `bson:"reason,omitempty"`
	Read      bool                    `bson:"read"`
	CreatedAt time.Time               `bson:"created_at"`
}

func (d *notificationDoc) toModel() models.Notification {
	return models.Notification{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Title:     d.Title,
		Body:      d.Body,
		Type:      d.Type,
		OrderID:   d.OrderID,
		Status:    d.Status,
		Reason:    d.Reason,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
	}
}

// Insert appends a notification record and returns its assigned id.
func (s *Store) Insert(ctx context.Context, n *models.Notification) (string, error) {
	doc := notificationDoc{
		UserID:    n.UserID,
		Title:     n.Title,
		Body:      n.Body,
		Type:      n.Type,
		OrderID:   n.OrderID,
		Status:    n.Status,
		Reason:    n.Reason,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", apperr.Dependency("failed to save notification", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", apperr.Dependency("unexpected inserted id type", nil)
	}
	return oid.Hex(), nil
}

// ListByUser returns a user's notifications, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperr.Dependency("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	for cursor.Next(ctx) {
		var doc notificationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperr.Dependency("failed to decode notification", err)
		}
		notifications = append(notifications, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Dependency("failed to iterate notifications", err)
	}

	return notifications, nil
}

// MarkRead flips the read flag on a notification.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFoundf("notification not found")
	}

	result, err := s.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperr.Dependency("failed to mark notification as read", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFoundf("notification not found")
	}
	return nil
}

// Delete removes a notification record.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFoundf("notification not found")
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return apperr.Dependency("failed to delete notification", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFoundf("notification not found")
	}
	return nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Store) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, apperr.Dependency("failed to count unread notifications", err)
	}
	return count, nil
}
