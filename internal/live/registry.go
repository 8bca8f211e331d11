package live

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"eduforum/internal/model"
)

// Registry owns the room map. It is the only structure shared across rooms;
// everything else lives inside each room's serializer.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	bus      Broadcaster
	archiver Archiver
	opts     Options
}

func NewRegistry(bus Broadcaster, archiver Archiver, opts Options) *Registry {
	// Seeds stay unresolved here so every room draws its own; only the
	// clock is shared.
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Registry{
		rooms:    make(map[string]*Room),
		bus:      bus,
		archiver: archiver,
		opts:     opts,
	}
}

// CreateRoom spawns a new room and its serializer goroutine.
func (g *Registry) CreateRoom(hostID, title string, capacity int, layout model.LayoutType) (*Room, error) {
	if hostID == "" {
		return nil, errValidation("host id is required")
	}
	if capacity <= 0 {
		capacity = 100
	}
	if layout == "" {
		layout = model.LayoutGallery
	}
	info := model.Room{
		ID:        uuid.New().String(),
		HostID:    hostID,
		Title:     title,
		Status:    model.RoomWaiting,
		Capacity:  capacity,
		Layout:    layout,
		CreatedAt: g.opts.Clock(),
	}
	room := newRoom(info, g.bus, g.archiver, g.opts, g.remove)

	g.mu.Lock()
	g.rooms[info.ID] = room
	g.mu.Unlock()

	go room.Run()
	log.Printf("room %s created by %s (capacity %d)", info.ID, hostID, capacity)
	return room, nil
}

// Get returns the live room handle, if the room is still running.
func (g *Registry) Get(roomID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[roomID]
	return r, ok
}

// Snapshot serves a read-only view without touching the room's serializer.
func (g *Registry) Snapshot(roomID string) (*model.RoomSnapshot, bool) {
	r, ok := g.Get(roomID)
	if !ok {
		return nil, false
	}
	return r.Snapshot(), true
}

// Close force-ends every room. Used on server shutdown.
func (g *Registry) Close() {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()
	for _, r := range rooms {
		if err := r.End(""); err != nil && err != ErrRoomClosed {
			log.Printf("room %s: shutdown end failed: %v", r.ID(), err)
		}
	}
}

func (g *Registry) remove(roomID string) {
	g.mu.Lock()
	delete(g.rooms, roomID)
	g.mu.Unlock()
	log.Printf("room %s removed from registry", roomID)
}
