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

	"github.com/recetar/recetar-api/internal/core/domain"
)

const collectionSupplies = "supplies"

// SupplyRepository implements ports.SupplyRepository using MongoDB.
type SupplyRepository struct {
	col *mongo.Collection
}

func NewSupplyRepository(db *mongo.Database) *SupplyRepository {
	return &SupplyRepository{col: db.Collection(collectionSupplies)}
}

type mongoSupply struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Name               string             `bson:"name"`
	ActivePrinciple    string             `bson:"activePrinciple,omitempty"`
	Power              string             `bson:"power,omitempty"`
	Unity              string             `bson:"unity,omitempty"`
	FirstPresentation  string             `bson:"firstPresentation,omitempty"`
	SecondPresentation string             `bson:"secondPresentation,omitempty"`
	Description        string             `bson:"description,omitempty"`
	Observation        string             `bson:"observation,omitempty"`
	PharmaceuticalForm string             `bson:"pharmaceutical_form,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
}

func (m mongoSupply) toDomain() *domain.Supply {
	return &domain.Supply{
		ID:                 m.ID.Hex(),
		Name:               m.Name,
		ActivePrinciple:    m.ActivePrinciple,
		Power:              m.Power,
		Unity:              m.Unity,
		FirstPresentation:  m.FirstPresentation,
		SecondPresentation: m.SecondPresentation,
		Description:        m.Description,
		Observation:        m.Observation,
		PharmaceuticalForm: m.PharmaceuticalForm,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func (r *SupplyRepository) List(ctx context.Context) ([]*domain.Supply, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list supplies: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoSupply
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode supplies: %w", err)
	}

	out := make([]*domain.Supply, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *SupplyRepository) Create(ctx context.Context, s *domain.Supply) (*domain.Supply, error) {
	doc := mongoSupply{
		Name:               s.Name,
		ActivePrinciple:    s.ActivePrinciple,
		Power:              s.Power,
		Unity:              s.Unity,
		FirstPresentation:  s.FirstPresentation,
		SecondPresentation: s.SecondPresentation,
		Description:        s.Description,
		Observation:        s.Observation,
		PharmaceuticalForm: s.PharmaceuticalForm,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert supply: %w", err)
	}
	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *SupplyRepository) FindByID(ctx context.Context, id string) (*domain.Supply, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSupplyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoSupply
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSupplyNotFound
		}
		return nil, fmt.Errorf("find supply: %w", err)
	}
	return doc.toDomain(), nil
}

// Update sets the given fields, keyed by stored field name, and returns the
// updated document.
func (r *SupplyRepository) Update(ctx context.Context, id string, changes map[string]string) (*domain.Supply, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSupplyNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range changes {
		set[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoSupply
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSupplyNotFound
		}
		return nil, fmt.Errorf("update supply: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SupplyRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrSupplyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete supply: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSupplyNotFound
	}
	return nil
}

func (r *SupplyRepository) TextSearch(ctx context.Context, query string, limit int) ([]domain.SupplyMatch, error) {
	return r.match(ctx, bson.M{"$text": bson.M{"$search": query}}, limit)
}

func (r *SupplyRepository) NameMatch(ctx context.Context, pattern string, limit int) ([]domain.SupplyMatch, error) {
	return r.match(ctx, bson.M{"name": primitive.Regex{Pattern: pattern, Options: "i"}}, limit)
}

func (r *SupplyRepository) match(ctx context.Context, filter bson.M, limit int) ([]domain.SupplyMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"name": 1}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search supplies: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoSupply
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode supplies: %w", err)
	}

	out := make([]domain.SupplyMatch, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.SupplyMatch{ID: d.ID.Hex(), Name: d.Name})
	}
	return out, nil
}

// EnsureIndexes creates the text index $text searches need and a plain name
// index for regex scans and sorting.
func (r *SupplyRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
