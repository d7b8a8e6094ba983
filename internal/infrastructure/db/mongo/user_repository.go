package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recetar/recetar-api/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository using MongoDB. Reads resolve
// role names from the roles collection with $lookup.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty"`
	Username            string               `bson:"username"`
	Email               string               `bson:"email"`
	Password            string               `bson:"password"`
	Enrollment          string               `bson:"enrollment,omitempty"`
	Cuil                string               `bson:"cuil,omitempty"`
	BusinessName        string               `bson:"businessName,omitempty"`
	Roles               []primitive.ObjectID `bson:"roles"`
	RefreshToken        string               `bson:"refreshToken,omitempty"`
	AuthenticationToken string               `bson:"authenticationToken,omitempty"`
	CreatedAt           time.Time            `bson:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt"`

	// populated by $lookup, never written
	RoleDocs []mongoRole `bson:"roleDocs,omitempty"`
}

func (m mongoUser) toDomain() *domain.User {
	names := make([]string, 0, len(m.RoleDocs))
	for _, r := range m.RoleDocs {
		names = append(names, r.Role)
	}
	return &domain.User{
		ID:            m.ID.Hex(),
		Username:      m.Username,
		Email:         m.Email,
		Password:      domain.PasswordFromHash(m.Password),
		Enrollment:    m.Enrollment,
		Cuil:          m.Cuil,
		BusinessName:  m.BusinessName,
		RoleIDs:       hexIDs(m.Roles),
		RoleNames:     names,
		RefreshToken:  m.RefreshToken,
		RecoveryToken: m.AuthenticationToken,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	roles := make([]primitive.ObjectID, 0, len(user.RoleIDs))
	for _, id := range user.RoleIDs {
		oid, ok := objectID(id)
		if !ok {
			return nil, domain.ErrRoleNotFound
		}
		roles = append(roles, oid)
	}

	doc := mongoUser{
		Username:     user.Username,
		Email:        user.Email,
		Password:     user.Password.Hash(),
		Enrollment:   user.Enrollment,
		Cuil:         user.Cuil,
		BusinessName: user.BusinessName,
		Roles:        roles,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateUserError(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	return r.findOne(ctx, bson.M{"_id": id})
}

// duplicateUserError names the unique field a duplicate-key error hit.
func duplicateUserError(err error) error {
	if strings.Contains(err.Error(), "email_1") {
		return domain.NewValidationError("email", "email already exists")
	}
	return domain.NewValidationError("username", "username already exists")
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"username": username})
}

// Search returns the users matching any of the non-empty identifiers in q.
func (r *UserRepository) Search(ctx context.Context, q domain.UserQuery) ([]*domain.User, error) {
	or := bson.A{}
	if q.Email != "" {
		or = append(or, bson.M{"email": q.Email})
	}
	if q.Username != "" {
		or = append(or, bson.M{"username": q.Username})
	}
	if q.Cuil != "" {
		or = append(or, bson.M{"cuil": q.Cuil})
	}
	if len(or) == 0 {
		return []*domain.User{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.aggregate(ctx, bson.M{"$or": or}, 0)
}

func (r *UserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count user: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"refreshToken": token}})
}

// RotateRefreshToken swaps oldToken for newToken in a single document write,
// so a token can be exchanged at most once.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, oldToken, newToken string) (*domain.User, error) {
	if oldToken == "" {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"refreshToken": oldToken},
		bson.M{"$set": bson.M{"refreshToken": newToken}},
		options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return r.findOne(ctx, bson.M{"_id": doc.ID})
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := r.updateOne(ctx, bson.M{"refreshToken": token}, bson.M{"$unset": bson.M{"refreshToken": ""}})
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	return err
}

func (r *UserRepository) SetRecoveryToken(ctx context.Context, id, token string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"authenticationToken": token}})
}

// ConsumeRecoveryToken sets the new password and unsets the token in one
// write. An unknown or already used token yields domain.ErrUserNotFound.
func (r *UserRepository) ConsumeRecoveryToken(ctx context.Context, token string, password domain.Password) error {
	if token == "" {
		return domain.ErrUserNotFound
	}
	return r.updateOne(ctx,
		bson.M{"authenticationToken": token},
		bson.M{
			"$set":   bson.M{"password": password.Hash(), "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"authenticationToken": ""},
		},
	)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, password domain.Password) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"password":  password.Hash(),
		"updatedAt": time.Now().UTC(),
	}})
}

// Update sets the given profile fields. Keys are the stored field names; a
// "password" value must already be a hash.
func (r *UserRepository) Update(ctx context.Context, id string, changes map[string]string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range changes {
		set[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateUserError(err)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) SetRoles(ctx context.Context, id string, roleIDs []string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	roles := make([]primitive.ObjectID, 0, len(roleIDs))
	for _, rid := range roleIDs {
		roid, ok := objectID(rid)
		if !ok {
			return domain.ErrRoleNotFound
		}
		roles = append(roles, roid)
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"roles":     roles,
		"updatedAt": time.Now().UTC(),
	}})
}

func (r *UserRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, match bson.M) (*domain.User, error) {
	users, err := r.aggregate(ctx, match, 1)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) aggregate(ctx context.Context, match bson.M, limit int64) ([]*domain.User, error) {
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: match}}}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         collectionRoles,
		"localField":   "roles",
		"foreignField": "_id",
		"as":           "roleDocs",
	}}})

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the unique identity indexes and the token lookups.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "cuil", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "authenticationToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
