package service

import (
	"context"
	"log"
	"time"

	"eduforum/internal/cache"
	"eduforum/internal/model"
	"eduforum/internal/repository"
)

// ArchiveService persists the final session record when a room ends. It
// implements live.Archiver; the write happens off the room serializer so a
// slow database never delays the end-of-room broadcast.
type ArchiveService struct {
	archiveRepo repository.ArchiveRepo
	roomCache   cache.RoomCache
	timeout     time.Duration
}

// NewArchiveService creates a new archive service.
func NewArchiveService(archiveRepo repository.ArchiveRepo, roomCache cache.RoomCache) *ArchiveService {
	return &ArchiveService{
		archiveRepo: archiveRepo,
		roomCache:   roomCache,
		timeout:     10 * time.Second,
	}
}

// ArchiveRoom stores the archive and retires the cached room metadata.
func (s *ArchiveService) ArchiveRoom(archive *model.RoomArchive) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.archiveRepo.Save(ctx, archive); err != nil {
			log.Printf("room %s: failed to archive session: %v", archive.Room.ID, err)
			return
		}
		if err := s.roomCache.SetStatus(ctx, archive.Room.ID, model.RoomEnded); err != nil {
			log.Printf("room %s: failed to update cached status: %v", archive.Room.ID, err)
		}
		log.Printf("room %s: session archived (%d participants, %d polls, %d board ops)",
			archive.Room.ID, len(archive.Participants), len(archive.Polls), len(archive.BoardOps))
	}()
}

// GetArchive fetches the final record of an ended room.
func (s *ArchiveService) GetArchive(ctx context.Context, roomID string) (*model.RoomArchive, error) {
	return s.archiveRepo.GetByRoomID(ctx, roomID)
}
