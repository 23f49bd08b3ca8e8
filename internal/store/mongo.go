package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// countersCollection holds one {_id: collection, seq} document per collection.
const countersCollection = "counters"

// MongoBackend stores each record as {_id, seq, doc}; doc is the record itself.
// seq is taken from a per-collection counter on first insert.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoRecord struct {
	ID  string   `bson:"_id"`
	Seq int64    `bson:"seq"`
	Doc bson.Raw `bson:"doc"`
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoBackend, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is required for the mongo backend")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	for _, name := range collections {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "seq", Value: 1}},
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("create %s index: %w", name, err)
		}
	}
	return &MongoBackend{client: client, db: db}, nil
}

func (m *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, unavailable("list "+collection, err)
	}
	defer cur.Close(ctx)

	var docs [][]byte
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, unavailable("decode "+collection, err)
		}
		doc, err := bson.MarshalExtJSON(rec.Doc, false, false)
		if err != nil {
			return nil, unavailable("convert "+collection+"/"+rec.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable("list "+collection, err)
	}
	return docs, nil
}

func (m *MongoBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	var rec mongoRecord
	err := m.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get "+collection+"/"+id, err)
	}
	doc, err := bson.MarshalExtJSON(rec.Doc, false, false)
	if err != nil {
		return nil, unavailable("convert "+collection+"/"+id, err)
	}
	return doc, nil
}

func (m *MongoBackend) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	var body bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &body); err != nil {
		return fmt.Errorf("convert %s/%s: %w", collection, id, err)
	}
	seq, err := m.nextSeq(ctx, collection)
	if err != nil {
		return unavailable("put "+collection+"/"+id, err)
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "doc", Value: body}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "seq", Value: seq}}},
	}
	_, err = m.db.Collection(collection).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}}, update, options.Update().SetUpsert(true))
	if err != nil {
		return unavailable("put "+collection+"/"+id, err)
	}
	return nil
}

// nextSeq atomically increments the collection's counter. Updates to an
// existing record also consume a value; gaps do not affect ordering.
func (m *MongoBackend) nextSeq(ctx context.Context, collection string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: collection}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next seq for %s: %w", collection, err)
	}
	return counter.Seq, nil
}

func (m *MongoBackend) Delete(ctx context.Context, collection, id string) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return unavailable("delete "+collection+"/"+id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
