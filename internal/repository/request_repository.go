package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/allelectronic/repair-service/internal/database"
	"github.com/allelectronic/repair-service/internal/model"
)

// RequestRepo stores repair requests in the repairrequests collection.
// Col is nil when the service runs without a database; every method then
// reports ErrStoreUnavailable and callers decide how to degrade.
type RequestRepo struct {
	Col *mongo.Collection
}

// NewRequestRepo builds a RequestRepo. db may be nil.
func NewRequestRepo(db *mongo.Database) *RequestRepo {
	if db == nil {
		return &RequestRepo{}
	}
	return &RequestRepo{Col: db.Collection(database.RequestsCollection)}
}

// Create inserts a new request. On an id collision (two submissions in the
// same millisecond) it regenerates the id and retries a couple of times
// before giving up.
func (r *RequestRepo) Create(ctx context.Context, req *model.RepairRequest) error {
	if r.Col == nil {
		return ErrStoreUnavailable
	}
	for attempt := 0; ; attempt++ {
		_, err := r.Col.InsertOne(ctx, req)
		if err == nil {
			return nil
		}
		if mongo.IsDuplicateKeyError(err) && attempt < 3 {
			req.ID = model.NewRequestID()
			continue
		}
		return err
	}
}

// FindByID fetches a request by its external id.
func (r *RequestRepo) FindByID(ctx context.Context, id string) (model.RepairRequest, error) {
	var req model.RepairRequest
	if r.Col == nil {
		return req, ErrStoreUnavailable
	}
	err := r.Col.FindOne(ctx, bson.M{"id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return req, ErrNotFound
	}
	return req, err
}

// containsCI matches a case-insensitive substring. The needle is quoted so
// user input cannot inject regex syntax into the query.
func containsCI(needle string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(needle), Options: "i"}
}

// equalsCI matches a whole value case-insensitively.
func equalsCI(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}

func searchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	re := containsCI(search)
	return bson.M{"$or": []bson.M{
		{"id": re},
		{"name": re},
		{"email": re},
	}}
}

// List returns one page of requests, newest first, plus the total count of
// matching records. page is 1-indexed. When all is true every matching
// record is returned in a single page and limit is ignored.
func (r *RequestRepo) List(ctx context.Context, page, limit int64, all bool, search string) ([]model.RepairRequest, int64, error) {
	if r.Col == nil {
		return nil, 0, ErrStoreUnavailable
	}
	filter := searchFilter(search)

	total, err := r.Col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if !all {
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 50
		}
		opts.SetSkip((page - 1) * limit).SetLimit(limit)
	}
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	items := []model.RepairRequest{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ApplyUpdate sets the given fields on one request and refreshes updatedAt.
// It returns the document as it looks after the update.
func (r *RequestRepo) ApplyUpdate(ctx context.Context, id string, set map[string]any) (model.RepairRequest, error) {
	var updated model.RepairRequest
	if r.Col == nil {
		return updated, ErrStoreUnavailable
	}
	fields := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}
	err := r.Col.FindOneAndUpdate(ctx,
		bson.M{"id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return updated, ErrNotFound
	}
	return updated, err
}

// DeleteMany removes the given ids and reports how many documents actually
// went away. Ids that do not exist are simply not counted; the operation
// never partially fails.
func (r *RequestRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if r.Col == nil {
		return 0, ErrStoreUnavailable
	}
	res, err := r.Col.DeleteMany(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// FindOpenMatch looks for a non-terminal request for the same customer and
// product: product equal case-insensitively AND (name+phone equal OR email
// equal). It returns nil when nothing matches. Inputs are expected to be
// normalized by the duplicate detector.
func (r *RequestRepo) FindOpenMatch(ctx context.Context, name, phone, email, product string) (*model.RepairRequest, error) {
	if r.Col == nil {
		return nil, ErrStoreUnavailable
	}
	filter := bson.M{
		"status":  bson.M{"$nin": []string{model.StatusCompleted, model.StatusCancelled}},
		"product": equalsCI(product),
		"$or": []bson.M{
			{"name": equalsCI(name), "phone": phone},
			{"email": equalsCI(email)},
		},
	}
	var match model.RepairRequest
	err := r.Col.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&match)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}
