// Package chat keeps the per-user support chat log in the document store.
// The generative answering side lives outside this service; only the durable
// message history is owned here.
package chat

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flash-food/internal/apperr"
)

const collectionName = "chat_messages"

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one chat log entry.
type Message struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type messageDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    int64              `bson:"user_id"`
	Sender    Sender             `bson:"sender"`
	Content   string             `bson:"content"`
	Timestamp time.Time          `bson:"timestamp"`
}

// Store persists chat messages in MongoDB.
type Store struct {
	coll *mongo.Collection
}

// NewStore creates a store over the given database.
func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(collectionName)}
}

// Append adds a message to the user's chat log.
func (s *Store) Append(ctx context.Context, userID int64, sender Sender, content string) (string, error) {
	doc := messageDoc{
		UserID:    userID,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	result, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", apperr.Dependency("failed to save chat message", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", apperr.Dependency("unexpected inserted id type", nil)
	}
	return oid.Hex(), nil
}

// History returns the user's messages in chronological order.
func (s *Store) History(ctx context.Context, userID int64) ([]Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperr.Dependency("failed to load chat history", err)
	}
	defer cursor.Close(ctx)

	var messages []Message
	for cursor.Next(ctx) {
		var doc messageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperr.Dependency("failed to decode chat message", err)
		}
		messages = append(messages, Message{
			ID:        doc.ID.Hex(),
			UserID:    doc.UserID,
			Sender:    doc.Sender,
			Content:   doc.Content,
			Timestamp: doc.Timestamp,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Dependency("failed to iterate chat history", err)
	}

	return messages, nil
}

// Clear deletes the user's whole chat log.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return apperr.Dependency("failed to clear chat history", err)
	}
	return nil
}
