package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/students-gateway/gateway/core/user"
)

type (
	userRepository struct {
		coll *mongo.Collection
	}

	userDoc struct {
		Username     string `bson:"username"`
		Name         string `bson:"name"`
		Email        string `bson:"email,omitempty"`
		Role         string `bson:"role"`
		PushToken    string `bson:"push_token,omitempty"`
		PasswordHash string `bson:"password_hash"`
		Salt         string `bson:"salt"`
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{coll: db.Collection(usersColl)}
}

func (repo userRepository) toDoc(usr user.User) userDoc {
	return userDoc{
		Username:     usr.Username,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		PushToken:    usr.PushToken,
		PasswordHash: usr.PasswordHash,
		Salt:         usr.Salt,
	}
}

func (repo userRepository) fromDoc(doc userDoc) user.User {
	return user.User{
		Username:     doc.Username,
		Name:         doc.Name,
		Email:        doc.Email,
		Role:         doc.Role,
		PushToken:    doc.PushToken,
		PasswordHash: doc.PasswordHash,
		Salt:         doc.Salt,
	}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := repo.coll.InsertOne(ctx, repo.toDoc(usr)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, username string) (user.User, error) {
	var doc userDoc
	if err := repo.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return repo.fromDoc(doc), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, usernames []string) ([]user.User, error) {
	if len(usernames) == 0 {
		return []user.User{}, nil
	}
	cur, err := repo.coll.Find(ctx, bson.M{"username": bson.M{"$in": usernames}})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var docs []userDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding users")
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, repo.fromDoc(doc))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"username": usr.Username}, repo.toDoc(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "replacing user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
