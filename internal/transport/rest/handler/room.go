package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"eduforum/internal/cache"
	"eduforum/internal/live"
	"eduforum/internal/model"
	"eduforum/internal/service"
	"eduforum/internal/transport/rest/middleware"
)

// RoomHandler handles room endpoints.
type RoomHandler struct {
	registry   *live.Registry
	roomCache  cache.RoomCache
	archiveSvc *service.ArchiveService
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(registry *live.Registry, roomCache cache.RoomCache, archiveSvc *service.ArchiveService) *RoomHandler {
	return &RoomHandler{
		registry:   registry,
		roomCache:  roomCache,
		archiveSvc: archiveSvc,
	}
}

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	Title    string           `json:"title"`
	Capacity int              `json:"capacity,omitempty"`
	Layout   model.LayoutType `json:"layout,omitempty"`
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.registry.CreateRoom(userID, req.Title, req.Capacity, req.Layout)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := room.Snapshot()
	meta := &model.RoomMeta{
		HostID:    snap.Room.HostID,
		Title:     snap.Room.Title,
		Status:    snap.Room.Status,
		Capacity:  snap.Room.Capacity,
		CreatedAt: snap.Room.CreatedAt,
	}
	if err := h.roomCache.SetMeta(r.Context(), room.ID(), meta); err != nil {
		log.Printf("room %s: failed to cache meta: %v", room.ID(), err)
	}

	writeJSON(w, http.StatusCreated, snap.Room)
}

// Get handles GET /v1/rooms/{roomId}. Served from the room's lock-free
// snapshot; never touches the serializer.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	if snap, ok := h.registry.Snapshot(roomID); ok {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	// Not live any more; fall back to the cached metadata.
	meta, err := h.roomCache.GetMeta(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if meta == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Start handles POST /v1/rooms/{roomId}/start.
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, func(room *live.Room, userID string) error { return room.Start(userID) })
}

// End handles POST /v1/rooms/{roomId}/end.
func (h *RoomHandler) End(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, func(room *live.Room, userID string) error { return room.End(userID) })
}

func (h *RoomHandler) control(w http.ResponseWriter, r *http.Request, op func(*live.Room, string) error) {
	roomID := mux.Vars(r)["roomId"]
	userID := middleware.GetUserID(r.Context())

	room, ok := h.registry.Get(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err := op(room, userID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"roomId": roomID})
}

// Archive handles GET /v1/rooms/{roomId}/archive.
func (h *RoomHandler) Archive(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	archive, err := h.archiveSvc.GetArchive(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if archive == nil {
		writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	writeJSON(w, http.StatusOK, archive)
}
