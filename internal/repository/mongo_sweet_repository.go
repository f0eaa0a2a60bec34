package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sweetshop/internal/model"
)

const sweetsCollection = "sweets"

type mongoSweetRepository struct {
	col *mongo.Collection
}

// NewMongoSweetRepository builds a repository over the sweets collection.
func NewMongoSweetRepository(db *mongo.Database) SweetRepository {
	return &mongoSweetRepository{col: db.Collection(sweetsCollection)}
}

// EnsureSweetIndexes creates the lookup indexes used by search.
func EnsureSweetIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(sweetsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category_key", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})
	return err
}

// BackfillSweetSearchKeys sets name_key and category_key on documents written before
// those fields existed.
func BackfillSweetSearchKeys(ctx context.Context, db *mongo.Database) (int, error) {
	col := db.Collection(sweetsCollection)
	cursor, err := col.Find(ctx, bson.M{"name_key": bson.M{"$exists": false}})
	if err != nil {
		return 0, err
	}
	var stale []model.Sweet
	if err := cursor.All(ctx, &stale); err != nil {
		return 0, err
	}
	for i := range stale {
		s := &stale[i]
		s.SetSearchKeys()
		set := bson.M{"name_key": s.NameKey, "category_key": s.CategoryKey}
		if _, err := col.UpdateByID(ctx, s.ID, bson.M{"$set": set}); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}

// DropCollections removes users and sweets.
func DropCollections(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{usersCollection, sweetsCollection} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *mongoSweetRepository) Create(ctx context.Context, sweet *model.Sweet) error {
	if sweet.ID == "" {
		id, err := newID()
		if err != nil {
			return err
		}
		sweet.ID = id
	}
	now := time.Now().UTC()
	sweet.CreatedAt, sweet.UpdatedAt = now, now
	sweet.SetSearchKeys()

	_, err := r.col.InsertOne(ctx, sweet)
	return err
}

func (r *mongoSweetRepository) FindByID(ctx context.Context, id string) (*model.Sweet, error) {
	var sweet model.Sweet
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&sweet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sweet, nil
}

func (r *mongoSweetRepository) List(ctx context.Context) ([]model.Sweet, error) {
	return r.find(ctx, bson.D{})
}

func (r *mongoSweetRepository) Search(ctx context.Context, filter model.SweetFilter) ([]model.Sweet, error) {
	q := bson.D{}
	if filter.Name != "" {
		q = append(q, bson.E{Key: "name_key", Value: containsRegex(filter.Name)})
	}
	if filter.Category != "" {
		q = append(q, bson.E{Key: "category_key", Value: containsRegex(filter.Category)})
	}
	price := bson.D{}
	if filter.MinPrice != nil {
		price = append(price, bson.E{Key: "$gte", Value: *filter.MinPrice})
	}
	if filter.MaxPrice != nil {
		price = append(price, bson.E{Key: "$lte", Value: *filter.MaxPrice})
	}
	if len(price) > 0 {
		q = append(q, bson.E{Key: "price", Value: price})
	}
	return r.find(ctx, q)
}

func (r *mongoSweetRepository) Update(ctx context.Context, id string, patch model.SweetPatch) (*model.Sweet, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
		set["name_key"] = model.SearchKey(*patch.Name)
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
		set["category_key"] = model.SearchKey(*patch.Category)
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

func (r *mongoSweetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Decrement uses a guarded $inc so the stock check and the write are one document
// operation.
func (r *mongoSweetRepository) Decrement(ctx context.Context, id string) (*model.Sweet, error) {
	sweet, err := r.findOneAndUpdate(ctx,
		bson.M{"_id": id, "quantity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"quantity": -1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if !errors.Is(err, ErrRecordNotFound) {
		return sweet, err
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrRecordNotFound
	}
	return nil, ErrInsufficientStock
}

func (r *mongoSweetRepository) Increment(ctx context.Context, id string, amount int) (*model.Sweet, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"quantity": amount}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
}

func (r *mongoSweetRepository) find(ctx context.Context, filter interface{}) ([]model.Sweet, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sweets := make([]model.Sweet, 0)
	if err := cursor.All(ctx, &sweets); err != nil {
		return nil, err
	}
	return sweets, nil
}

func (r *mongoSweetRepository) findOneAndUpdate(ctx context.Context, filter, update interface{}) (*model.Sweet, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var sweet model.Sweet
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sweet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &sweet, nil
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(model.SearchKey(s))}
}
