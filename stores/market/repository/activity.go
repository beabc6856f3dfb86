package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/xerrors"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/log"
	"github.com/lunapunks/punkmarket/domain/market"
)

const activityCollection = "market_activities"

type activityRepo struct {
	db *mongo.Database
}

// NewActivityRepo journals marketplace events to mongo. The journal is
// observability only; ledger state never depends on it.
func NewActivityRepo(db *mongo.Database) market.ActivityRepo {
	return &activityRepo{db: db}
}

func (im *activityRepo) Insert(c ctx.Ctx, activity *market.Activity) error {
	_, err := im.db.Collection(activityCollection).InsertOne(c, activity)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "action": activity.Action}).Error("failed to insert activity")
		return xerrors.Errorf("insert activity: %w", err)
	}
	return nil
}

func (im *activityRepo) makeQuery(options market.ActivityFindAllOptions) bson.M {
	query := bson.M{}

	if options.Action != nil {
		query["action"] = *options.Action
	}

	if options.TokenId != nil {
		query["tokenId"] = *options.TokenId
	}

	if options.Actor != nil {
		query["actor"] = *options.Actor
	}

	return query
}

func (im *activityRepo) FindAll(c ctx.Ctx, opts ...market.ActivityFindAllOptionsFunc) ([]*market.Activity, error) {
	opt, err := market.GetActivityFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	query := im.makeQuery(opt)

	findOpts := options.Find().SetSort(bson.M{"time": -1})
	if opt.Offset != nil {
		findOpts = findOpts.SetSkip(int64(*opt.Offset))
	}
	if opt.Limit != nil {
		findOpts = findOpts.SetLimit(int64(*opt.Limit))
	}

	cursor, err := im.db.Collection(activityCollection).Find(c, query, findOpts)
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to find activities")
		return nil, xerrors.Errorf("find activities: %w", err)
	}
	defer cursor.Close(c)

	res := []*market.Activity{}
	if err := cursor.All(c, &res); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to decode activities")
		return nil, xerrors.Errorf("decode activities: %w", err)
	}
	return res, nil
}
