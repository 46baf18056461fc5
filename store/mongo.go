package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rogpool/pool-service-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection   = "users"
	clientsCollection = "clients"
	reportsCollection = "service_reports"
)

// MongoStore keeps records as documents, keyed by their "id" field
type MongoStore struct {
	client  *mongo.Client
	users   *mongo.Collection
	clients *mongo.Collection
	reports *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures indexes
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:  client,
		users:   db.Collection(usersCollection),
		clients: db.Collection(clientsCollection),
		reports: db.Collection(reportsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		s.clients: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		s.reports: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), translateMongoError(err))
		}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return translateMongoError(s.client.Ping(ctx, readpref.Primary()))
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	stampNew(&user.ID, &user.CreatedAt)
	_, err := s.users.InsertOne(ctx, user)
	return translateMongoError(err)
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"id": id}).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := findAll(ctx, s.users, bson.M{}, bson.D{{Key: "username", Value: 1}}, &users)
	return users, err
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	return deleteOne(ctx, s.users, id)
}

// Clients

func (s *MongoStore) CreateClient(ctx context.Context, client *models.Client) error {
	stampNew(&client.ID, &client.CreatedAt)
	_, err := s.clients.InsertOne(ctx, client)
	return translateMongoError(err)
}

func (s *MongoStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.clients.FindOne(ctx, bson.M{"id": id}).Decode(&client); err != nil {
		return nil, translateMongoError(err)
	}
	return &client, nil
}

func (s *MongoStore) ListClients(ctx context.Context, filter ClientFilter) ([]models.Client, error) {
	query := bson.M{}
	if filter.EmployeeID != nil {
		query["employee_id"] = *filter.EmployeeID
	}
	clients := []models.Client{}
	err := findAll(ctx, s.clients, query, bson.D{{Key: "name", Value: 1}}, &clients)
	return clients, err
}

func (s *MongoStore) DeleteClient(ctx context.Context, id string) error {
	return deleteOne(ctx, s.clients, id)
}

// Reports

func (s *MongoStore) CreateReport(ctx context.Context, report *models.ServiceReport) error {
	stampNew(&report.ID, &report.CreatedAt)
	_, err := s.reports.InsertOne(ctx, report)
	return translateMongoError(err)
}

func (s *MongoStore) GetReport(ctx context.Context, id string) (*models.ServiceReport, error) {
	var report models.ServiceReport
	if err := s.reports.FindOne(ctx, bson.M{"id": id}).Decode(&report); err != nil {
		return nil, translateMongoError(err)
	}
	return &report, nil
}

func (s *MongoStore) ListReports(ctx context.Context, filter ReportFilter) ([]models.ServiceReport, error) {
	query := bson.M{}
	if filter.EmployeeID != nil {
		query["employee_id"] = *filter.EmployeeID
	}
	reports := []models.ServiceReport{}
	err := findAll(ctx, s.reports, query, bson.D{{Key: "created_at", Value: -1}}, &reports)
	return reports, err
}

func (s *MongoStore) SaveReport(ctx context.Context, report *models.ServiceReport) error {
	result, err := s.reports.ReplaceOne(ctx, bson.M{"id": report.ID}, report)
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteReport(ctx context.Context, id string) error {
	return deleteOne(ctx, s.reports, id)
}

// stampNew fills what the gorm hooks and autoCreateTime do for relational backends
func stampNew(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now()
	}
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, sort bson.D, out interface{}) error {
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return translateMongoError(err)
	}
	defer cursor.Close(ctx)
	return translateMongoError(cursor.All(ctx, out))
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id string) error {
	result, err := coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// translateMongoError maps driver errors onto the store sentinels
func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected),
		strings.Contains(err.Error(), "server selection"):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
