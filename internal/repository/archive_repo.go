package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eduforum/internal/model"
)

// ArchiveRepo handles MongoDB operations for final session records.
type ArchiveRepo interface {
	Save(ctx context.Context, archive *model.RoomArchive) error
	GetByRoomID(ctx context.Context, roomID string) (*model.RoomArchive, error)
}

type archiveRepo struct {
	collection *mongo.Collection
}

// NewArchiveRepo creates a new archive repository.
func NewArchiveRepo(db *mongo.Database) ArchiveRepo {
	return &archiveRepo{
		collection: db.Collection("room_archives"),
	}
}

func (r *archiveRepo) Save(ctx context.Context, archive *model.RoomArchive) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"room._id": archive.Room.ID}, archive, opts)
	return err
}

func (r *archiveRepo) GetByRoomID(ctx context.Context, roomID string) (*model.RoomArchive, error) {
	var archive model.RoomArchive
	err := r.collection.FindOne(ctx, bson.M{"room._id": roomID}).Decode(&archive)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &archive, nil
}
