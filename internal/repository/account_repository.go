package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/allelectronic/repair-service/internal/database"
	"github.com/allelectronic/repair-service/internal/model"
	"github.com/allelectronic/repair-service/internal/utils"
)

// AccountRepo stores back-office accounts. Cost is the bcrypt work factor
// applied when hashing passwords.
type AccountRepo struct {
	Col  *mongo.Collection
	Cost int
}

// NewAccountRepo builds an AccountRepo. db may be nil.
func NewAccountRepo(db *mongo.Database, cost int) *AccountRepo {
	r := &AccountRepo{Cost: cost}
	if db != nil {
		r.Col = db.Collection(database.AccountsCollection)
	}
	return r
}

// Create inserts a new active account with a hashed password. Unknown roles
// fall back to the least-privileged role. The plain password is hashed
// before anything touches the store and is never logged.
func (r *AccountRepo) Create(ctx context.Context, username, password, role string) (model.Account, error) {
	var acc model.Account
	if r.Col == nil {
		return acc, ErrStoreUnavailable
	}
	if !model.ValidRole(role) {
		role = model.RoleUser
	}
	hash, err := utils.HashPassword(password, r.Cost)
	if err != nil {
		return acc, err
	}
	now := time.Now().UTC()
	acc = model.Account{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		LastModified: now,
	}
	if _, err := r.Col.InsertOne(ctx, acc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Account{}, ErrUsernameExists
		}
		return model.Account{}, err
	}
	return acc, nil
}

// Authenticate looks up an active account by username and verifies the
// password against the stored hash. A missing account, an inactive account
// and a wrong password are indistinguishable to the caller.
func (r *AccountRepo) Authenticate(ctx context.Context, username, password string) (model.Account, error) {
	var acc model.Account
	if r.Col == nil {
		return acc, ErrStoreUnavailable
	}
	err := r.Col.FindOne(ctx, bson.M{
		"username": strings.TrimSpace(username),
		"isActive": true,
	}).Decode(&acc)
	if err == mongo.ErrNoDocuments {
		return model.Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Account{}, err
	}
	if !utils.VerifyPassword(acc.PasswordHash, password) {
		return model.Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// List returns all accounts ordered by role then username.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	if r.Col == nil {
		return nil, ErrStoreUnavailable
	}
	cur, err := r.Col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "role", Value: 1}, {Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	accounts := []model.Account{}
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Update changes an account's password and/or role. Callers validate that at
// least one field is present; an unknown role value is ignored rather than
// rejected. Role changes take effect on the next token issuance only.
func (r *AccountRepo) Update(ctx context.Context, id, newPassword, newRole string) error {
	if r.Col == nil {
		return ErrStoreUnavailable
	}
	set := bson.M{"lastModified": time.Now().UTC()}
	if newPassword != "" {
		hash, err := utils.HashPassword(newPassword, r.Cost)
		if err != nil {
			return err
		}
		set["passwordHash"] = hash
	}
	if model.ValidRole(newRole) {
		set["role"] = newRole
	}
	res, err := r.Col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account by id. Deleting the acting account is forbidden
// regardless of role; the guard compares usernames so a fresh token cannot
// sidestep it.
func (r *AccountRepo) Delete(ctx context.Context, id, actingUsername string) (model.Account, error) {
	var acc model.Account
	if r.Col == nil {
		return acc, ErrStoreUnavailable
	}
	err := r.Col.FindOne(ctx, bson.M{"id": id}).Decode(&acc)
	if err == mongo.ErrNoDocuments {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	if acc.Username == actingUsername {
		return model.Account{}, ErrSelfDelete
	}
	if _, err := r.Col.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return model.Account{}, err
	}
	return acc, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not already
// exist. Used at startup when ADMIN_USER/ADMIN_PASS are configured.
func (r *AccountRepo) EnsureAdmin(ctx context.Context, username, password string) error {
	if r.Col == nil {
		return ErrStoreUnavailable
	}
	err := r.Col.FindOne(ctx, bson.M{"username": strings.TrimSpace(username)}).Err()
	if err == nil {
		return nil // already present
	}
	if err != mongo.ErrNoDocuments {
		return err
	}
	_, err = r.Create(ctx, username, password, model.RoleAdmin)
	return err
}
