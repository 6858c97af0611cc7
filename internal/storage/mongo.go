package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adanyl0v/taskboard/internal/models"
)

var _ Store = (*MongoStore)(nil)

const (
	mongoTasksCollection    = "tasks"
	mongoUsersCollection    = "users"
	mongoSessionsCollection = "sessions"
)

type MongoStore struct {
	tasks    *mongo.Collection
	users    *mongo.Collection
	sessions *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		tasks:    db.Collection(mongoTasksCollection),
		users:    db.Collection(mongoUsersCollection),
		sessions: db.Collection(mongoSessionsCollection),
	}
}

type taskDocument struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"owner_id"`
	Title     string    `bson:"title"`
	Status    string    `bson:"status"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *taskDocument) model() *models.Task {
	return &models.Task{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Status:    models.Status(d.Status),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type sessionDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Fingerprint  string    `bson:"fingerprint"`
	RefreshToken string    `bson:"refresh_token"`
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *sessionDocument) model() *models.Session {
	return &models.Session{
		ID:           d.ID,
		UserID:       d.UserID,
		Fingerprint:  d.Fingerprint,
		RefreshToken: d.RefreshToken,
		ExpiresAt:    d.ExpiresAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// EnsureIndexes creates the unique email index and the owner lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "owner_id", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "_id", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks index: %w", err)
	}

	_, err = s.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "refresh_token", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create sessions indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateTask(ctx context.Context, task *models.Task) error {
	_, err := s.tasks.InsertOne(ctx, taskDocument{
		ID:        task.ID,
		OwnerID:   task.OwnerID,
		Title:     task.Title,
		Status:    string(task.Status),
		Version:   task.Version,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("task %s: %w", task.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *MongoStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var doc taskDocument
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := s.tasks.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}

	var docs []taskDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*models.Task, 0, len(docs))
	for i := range docs {
		tasks = append(tasks, docs[i].model())
	}
	return tasks, nil
}

func (s *MongoStore) UpdateTask(ctx context.Context, task *models.Task, expectedVersion int64) error {
	filter := bson.M{"_id": task.ID, "version": expectedVersion}
	update := bson.M{"$set": bson.M{
		"title":      task.Title,
		"status":     string(task.Status),
		"version":    task.Version,
		"updated_at": task.UpdatedAt,
	}}
	res, err := s.tasks.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if _, err = s.GetTask(ctx, task.ID); err != nil {
		return err
	}
	return fmt.Errorf("task %s: %w", task.ID, ErrVersionConflict)
}

func (s *MongoStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.users.InsertOne(ctx, userDocument{
		ID:        user.ID,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", user.Email, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &models.User{
		ID:        doc.ID,
		Email:     doc.Email,
		Password:  doc.Password,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// ReplaceSessions runs as two writes. Standalone servers have no
// multi-document transactions.
func (s *MongoStore) ReplaceSessions(ctx context.Context, session *models.Session) error {
	if _, err := s.sessions.DeleteMany(ctx, bson.M{"user_id": session.UserID}); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	_, err := s.sessions.InsertOne(ctx, sessionDocument{
		ID:           session.ID,
		UserID:       session.UserID,
		Fingerprint:  session.Fingerprint,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	return s.findSession(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	return s.findSession(ctx, bson.M{"refresh_token": refreshToken})
}

func (s *MongoStore) findSession(ctx context.Context, filter bson.M) (*models.Session, error) {
	var doc sessionDocument
	err := s.sessions.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) UpdateSession(ctx context.Context, session *models.Session) error {
	update := bson.M{"$set": bson.M{
		"refresh_token": session.RefreshToken,
		"expires_at":    session.ExpiresAt,
		"updated_at":    session.UpdatedAt,
	}}
	res, err := s.sessions.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	res, err := s.sessions.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return res.DeletedCount, nil
}
