package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/students-gateway/gateway/core/post"
)

type (
	postRepository struct {
		coll *mongo.Collection
	}

	postDoc struct {
		ID                      primitive.ObjectID `bson:"_id,omitempty"`
		Title                   string             `bson:"title"`
		Body                    string             `bson:"body"`
		GroupID                 string             `bson:"group_id"`
		AuthorID                string             `bson:"author_id"`
		DateCreated             int64              `bson:"date_created"`
		DateDue                 *int64             `bson:"date_due"`
		Location                *string            `bson:"location"`
		RequiresAcknowledgement bool               `bson:"requires_acknowledgement"`
		Viewed                  []string           `bson:"viewed"`
		Acknowledged            []ackDoc           `bson:"acknowledged"`
	}

	ackDoc struct {
		Username string `bson:"username"`
		Response *bool  `bson:"response"`
	}
)

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *mongo.Database) *postRepository {
	return &postRepository{coll: db.Collection(postsColl)}
}

func (repo postRepository) toDoc(pst post.Post) postDoc {
	doc := postDoc{
		Title:                   pst.Title,
		Body:                    pst.Body,
		GroupID:                 pst.GroupID,
		AuthorID:                pst.AuthorID,
		DateCreated:             pst.DateCreated,
		DateDue:                 pst.DateDue,
		Location:                pst.Location,
		RequiresAcknowledgement: pst.RequiresAcknowledgement,
		Viewed:                  pst.Viewed,
		Acknowledged:            make([]ackDoc, 0, len(pst.Acknowledged)),
	}
	if doc.Viewed == nil {
		doc.Viewed = []string{}
	}
	for _, ack := range pst.Acknowledged {
		doc.Acknowledged = append(doc.Acknowledged, ackDoc{Username: ack.Username, Response: ack.Response})
	}
	return doc
}

func (repo postRepository) fromDoc(doc postDoc) post.Post {
	pst := post.Post{
		ID:                      doc.ID.Hex(),
		Title:                   doc.Title,
		Body:                    doc.Body,
		GroupID:                 doc.GroupID,
		AuthorID:                doc.AuthorID,
		DateCreated:             doc.DateCreated,
		DateDue:                 doc.DateDue,
		Location:                doc.Location,
		RequiresAcknowledgement: doc.RequiresAcknowledgement,
		Viewed:                  doc.Viewed,
		Acknowledged:            make([]post.Acknowledgement, 0, len(doc.Acknowledged)),
	}
	if pst.Viewed == nil {
		pst.Viewed = []string{}
	}
	for _, ack := range doc.Acknowledged {
		pst.Acknowledged = append(pst.Acknowledged, post.Acknowledgement{Username: ack.Username, Response: ack.Response})
	}
	return pst
}

func (repo postRepository) InsertPost(ctx context.Context, pst post.Post) (post.Post, error) {
	doc := repo.toDoc(pst)
	res, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		return post.Post{}, errors.Wrap(err, "inserting post")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return repo.fromDoc(doc), nil
}

func (repo postRepository) GetPost(ctx context.Context, id string) (post.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return post.Post{}, post.ErrNotFound
	}
	var doc postDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, errors.Wrap(err, "finding post")
	}
	return repo.fromDoc(doc), nil
}

// QueryPosts sorts by creation date, newest first; ties are broken by insertion order.
func (repo postRepository) QueryPosts(ctx context.Context, filter post.QueryFilter, skip, limit int) ([]post.Post, error) {
	query := bson.D{{Key: "group_id", Value: bson.M{"$in": filter.GroupIDs}}}
	if filter.NotViewedBy != "" {
		query = append(query, bson.E{Key: "viewed", Value: bson.M{"$ne": filter.NotViewedBy}})
	}
	if filter.Search != "" {
		query = append(query, textSearch(filter.Search))
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date_created", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	var docs []postDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding posts")
	}
	posts := make([]post.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, repo.fromDoc(doc))
	}
	return posts, nil
}

func (repo postRepository) UpdatePost(ctx context.Context, id string, patch post.Patch) (int64, error) {
	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Body != nil {
		set = append(set, bson.E{Key: "body", Value: *patch.Body})
	}
	if patch.GroupID != nil {
		set = append(set, bson.E{Key: "group_id", Value: *patch.GroupID})
	}
	if patch.Location.Set {
		set = append(set, bson.E{Key: "location", Value: patch.Location.Value})
	}
	if patch.RequiresAcknowledgement != nil {
		set = append(set, bson.E{Key: "requires_acknowledgement", Value: *patch.RequiresAcknowledgement})
	}
	if patch.DateDue.Set {
		set = append(set, bson.E{Key: "date_due", Value: patch.DateDue.Value})
	}
	if len(set) == 0 {
		return 0, nil
	}
	return repo.updateOne(ctx, bson.M{}, id, bson.D{{Key: "$set", Value: set}})
}

// updateOne applies update to the post matching id & filter; it returns the modified count.
func (repo postRepository) updateOne(ctx context.Context, filter bson.M, id string, update interface{}) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	filter["_id"] = oid
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, errors.Wrap(err, "updating post")
	}
	return res.ModifiedCount, nil
}

func (repo postRepository) DeletePost(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, errors.Wrap(err, "deleting post")
	}
	return res.DeletedCount, nil
}

func (repo postRepository) AddViewer(ctx context.Context, id, username string) (int64, error) {
	return repo.updateOne(ctx, bson.M{}, id, bson.M{"$addToSet": bson.M{"viewed": username}})
}

func (repo postRepository) SeedAcknowledgement(ctx context.Context, id, username string) (int64, error) {
	filter := bson.M{"acknowledged.username": bson.M{"$ne": username}}
	update := bson.M{"$push": bson.M{"acknowledged": ackDoc{Username: username}}}
	return repo.updateOne(ctx, filter, id, update)
}

func (repo postRepository) SetResponse(ctx context.Context, id, username string, response bool) (int64, error) {
	filter := bson.M{"acknowledged.username": username}
	update := bson.M{"$set": bson.M{"acknowledged.$.response": response}}
	return repo.updateOne(ctx, filter, id, update)
}
