package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"assetwatch/internal/models"
)

// MongoRepository persists assets, metric samples, and alerts in MongoDB.
// Metric samples live in a time-series collection keyed by asset.
type MongoRepository struct {
	client  *mongo.Client
	assets  *mongo.Collection
	metrics *mongo.Collection
	alerts  *mongo.Collection
}

// NewMongoRepository connects to MongoDB and prepares the collections and
// indexes used by the monitoring core.
func NewMongoRepository(uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(database)

	tsOptions := options.CreateCollection().SetTimeSeriesOptions(
		options.TimeSeries().
			SetTimeField("timestamp").
			SetMetaField("asset_id").
			SetGranularity("seconds"),
	)
	// Ignore the error when the collection already exists
	db.CreateCollection(ctx, "metrics", tsOptions)

	repo := &MongoRepository{
		client:  client,
		assets:  db.Collection("assets"),
		metrics: db.Collection("metrics"),
		alerts:  db.Collection("alerts"),
	}

	repo.metrics.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "metric_kind", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	repo.alerts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	repo.assets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_maintenance_date", Value: 1}}},
	})

	return repo, nil
}

func (r *MongoRepository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	var asset models.Asset
	err := r.assets.FindOne(ctx, bson.M{"_id": id}).Decode(&asset)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get asset", err)
	}
	return &asset, nil
}

func (r *MongoRepository) SaveAsset(ctx context.Context, asset *models.Asset) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.assets.ReplaceOne(ctx, bson.M{"_id": asset.ID}, asset, opts)
	return wrap("save asset", err)
}

func (r *MongoRepository) ListAssetsWithUpcomingMaintenance(ctx context.Context, now time.Time, horizonDays int) ([]models.Asset, error) {
	horizon := now.AddDate(0, 0, horizonDays)
	filter := bson.M{
		"status":                models.StatusActive,
		"next_maintenance_date": bson.M{"$ne": nil, "$lte": horizon},
	}

	cursor, err := r.assets.Find(ctx, filter)
	if err != nil {
		return nil, wrap("list upcoming maintenance", err)
	}
	defer cursor.Close(ctx)

	var assets []models.Asset
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, wrap("list upcoming maintenance", err)
	}
	return assets, nil
}

func (r *MongoRepository) SaveMetric(ctx context.Context, sample *models.Sample) error {
	_, err := r.metrics.InsertOne(ctx, sample)
	return wrap("save metric", err)
}

func (r *MongoRepository) GetPreviousMetric(ctx context.Context, assetID string, kind models.MetricKind) (*models.Sample, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	filter := bson.M{"asset_id": assetID, "metric_kind": kind}

	var sample models.Sample
	err := r.metrics.FindOne(ctx, filter, opts).Decode(&sample)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get previous metric", err)
	}
	return &sample, nil
}

func (r *MongoRepository) SaveAlert(ctx context.Context, alert *models.Alert) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.alerts.ReplaceOne(ctx, bson.M{"_id": alert.ID}, alert, opts)
	return wrap("save alert", err)
}

func (r *MongoRepository) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := r.alerts.FindOne(ctx, bson.M{"_id": id}).Decode(&alert)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get alert", err)
	}
	return &alert, nil
}

func (r *MongoRepository) DeleteAlert(ctx context.Context, id string) error {
	res, err := r.alerts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("delete alert", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListActiveAlerts(ctx context.Context, assetID string, since time.Time) ([]models.Alert, error) {
	filter := bson.M{
		"asset_id":   assetID,
		"created_at": bson.M{"$gte": since},
		"status":     bson.M{"$in": []models.AlertStatus{models.AlertOpen, models.AlertAcknowledged}},
	}

	cursor, err := r.alerts.Find(ctx, filter)
	if err != nil {
		return nil, wrap("list active alerts", err)
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, wrap("list active alerts", err)
	}
	return alerts, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
