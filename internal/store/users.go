package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/query"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection)}
}

// UserUpdate carries the admin-editable fields; nil means unchanged.
// Password must already be hashed.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Password  *string
	Role      *string
	Status    *string
}

func (u UserUpdate) set() bson.M {
	set := bson.M{}
	if u.FirstName != nil {
		set["firstName"] = *u.FirstName
	}
	if u.LastName != nil {
		set["lastName"] = *u.LastName
	}
	if u.Password != nil {
		set["password"] = *u.Password
	}
	if u.Role != nil {
		set["role"] = *u.Role
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	return set
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []models.User
	Total int64
	Stats models.UserStats
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("insert user: %w", classify(err))
	}
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (s *UserStore) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	t := now()
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": t, "updatedAt": t}})
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Update applies u and returns the updated user.
func (s *UserStore) Update(ctx context.Context, id primitive.ObjectID, u UserUpdate) (*models.User, error) {
	set := u.set()
	set["updatedAt"] = now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (s *UserStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

type groupCount struct {
	ID    *string `bson:"_id"`
	Count int64   `bson:"count"`
}

type userFacet struct {
	Data     []models.User `bson:"data"`
	Meta     []facetCount  `bson:"meta"`
	ByStatus []groupCount  `bson:"byStatus"`
	ByRole   []groupCount  `bson:"byRole"`
}

// List pages users matching a partial email, with status and role counts.
func (s *UserStore) List(ctx context.Context, email string, page query.Page) (*UserPage, error) {
	cursor, err := s.coll.Aggregate(ctx, query.UserListPipeline(query.UserMatch(email), page))
	if err != nil {
		return nil, fmt.Errorf("aggregate users: %w", err)
	}
	defer cursor.Close(ctx)

	var results []userFacet
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := &UserPage{Users: make([]models.User, 0)}
	if len(results) == 0 {
		return out, nil
	}
	r := results[0]
	if r.Data != nil {
		out.Users = r.Data
	}
	if len(r.Meta) > 0 {
		out.Total = r.Meta[0].Total
	}
	out.Stats = userStats(r.ByStatus, r.ByRole)
	return out, nil
}

func userStats(byStatus, byRole []groupCount) models.UserStats {
	var stats models.UserStats
	for _, g := range byStatus {
		if g.ID == nil {
			continue
		}
		switch *g.ID {
		case models.UserStatusActive:
			stats.TotalActive = g.Count
		case models.UserStatusInactive:
			stats.TotalInactive = g.Count
		case models.UserStatusSuspended:
			stats.TotalSuspended = g.Count
		}
	}
	for _, g := range byRole {
		if g.ID == nil {
			continue
		}
		switch *g.ID {
		case models.RoleAdmin:
			stats.TotalAdmins = g.Count
		case models.RoleUser:
			stats.TotalUsers = g.Count
		}
	}
	return stats
}

// Distribution counts every user by role and status. Users with no role
// field are counted under the empty key.
type Distribution struct {
	Total    int64
	ByRole   map[string]int64
	ByStatus map[string]int64
}

func (s *UserStore) Distribution(ctx context.Context) (*Distribution, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "byRole", Value: bson.A{bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$role"},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}}}},
			{Key: "byStatus", Value: bson.A{bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$status"},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate distribution: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		ByRole   []groupCount `bson:"byRole"`
		ByStatus []groupCount `bson:"byStatus"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode distribution: %w", err)
	}

	d := &Distribution{ByRole: map[string]int64{}, ByStatus: map[string]int64{}}
	if len(results) == 0 {
		return d, nil
	}
	for _, g := range results[0].ByRole {
		d.ByRole[deref(g.ID)] += g.Count
		d.Total += g.Count
	}
	for _, g := range results[0].ByStatus {
		d.ByStatus[deref(g.ID)] += g.Count
	}
	return d, nil
}

// All returns every user without password hashes, newest first.
func (s *UserStore) All(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
