package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/students-gateway/gateway/core/group"
)

type (
	groupRepository struct {
		coll *mongo.Collection
	}

	groupDoc struct {
		ID      primitive.ObjectID `bson:"_id,omitempty"`
		Name    string             `bson:"name"`
		Owners  []string           `bson:"owners"`
		Members []string           `bson:"members"`
	}
)

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *mongo.Database) *groupRepository {
	return &groupRepository{coll: db.Collection(groupsColl)}
}

func (repo groupRepository) fromDoc(doc groupDoc) group.Group {
	grp := group.Group{
		ID:      doc.ID.Hex(),
		Name:    doc.Name,
		Owners:  doc.Owners,
		Members: doc.Members,
	}
	if grp.Owners == nil {
		grp.Owners = []string{}
	}
	if grp.Members == nil {
		grp.Members = []string{}
	}
	return grp
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	doc := groupDoc{Name: grp.Name, Owners: grp.Owners, Members: grp.Members}
	res, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return repo.fromDoc(doc), nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id string) (group.Group, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return group.Group{}, group.ErrNotFound
	}
	var doc groupDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "finding group")
	}
	return repo.fromDoc(doc), nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter group.QueryFilter) ([]group.Group, error) {
	query := bson.D{}
	if filter.IDs != nil {
		query = append(query, bson.E{Key: "_id", Value: bson.M{"$in": objectIDs(filter.IDs)}})
	}
	if filter.Owner != "" {
		query = append(query, bson.E{Key: "owners", Value: filter.Owner})
	}
	if filter.User != "" {
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.M{"owners": filter.User},
			bson.M{"members": filter.User},
		}})
	}
	if filter.Search != "" {
		query = append(query, textSearch(filter.Search))
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	var docs []groupDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding groups")
	}
	groups := make([]group.Group, 0, len(docs))
	for _, doc := range docs {
		groups = append(groups, repo.fromDoc(doc))
	}
	return groups, nil
}

func (repo groupRepository) GroupIDsWithUser(ctx context.Context, username string) ([]string, error) {
	query := bson.M{"$or": bson.A{bson.M{"owners": username}, bson.M{"members": username}}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups with user")
	}
	var docs []groupDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding groups")
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID.Hex())
	}
	return ids, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, id string, patch group.Patch) (int64, error) {
	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Owners != nil {
		set = append(set, bson.E{Key: "owners", Value: patch.Owners})
	}
	if patch.Members != nil {
		set = append(set, bson.E{Key: "members", Value: patch.Members})
	}
	if len(set) == 0 {
		return 0, nil
	}
	return repo.updateOne(ctx, id, bson.D{{Key: "$set", Value: set}})
}

func (repo groupRepository) updateOne(ctx context.Context, id string, update interface{}) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return 0, errors.Wrap(err, "updating group")
	}
	return res.ModifiedCount, nil
}

func (repo groupRepository) DeleteGroup(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, errors.Wrap(err, "deleting group")
	}
	return res.DeletedCount, nil
}

func (repo groupRepository) AddMember(ctx context.Context, id, username string) (int64, error) {
	return repo.updateOne(ctx, id, bson.M{"$push": bson.M{"members": username}})
}
