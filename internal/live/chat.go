package live

import (
	"strings"

	"github.com/google/uuid"

	"eduforum/internal/model"
)

func (r *Room) chatSend(p *model.Participant, body string) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return errValidation("chat message body is required")
	}
	msg := model.ChatMessage{
		ID:            uuid.New().String(),
		RoomID:        r.info.ID,
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		Body:          body,
		SentAt:        r.now(),
	}
	r.chat = append(r.chat, msg)
	r.bus.BroadcastToRoom(r.info.ID, model.EvtChatMessage, msg)
	return nil
}

// reactionSend is lossy and ephemeral: broadcast only, never logged.
func (r *Room) reactionSend(p *model.Participant, emoji string) {
	if p.Status != model.ParticipantJoined || emoji == "" {
		return
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtReactionSent, model.Reaction{
		ParticipantID: p.ID,
		Emoji:         emoji,
	})
}
