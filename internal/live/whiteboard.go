package live

import (
	"time"

	"eduforum/internal/model"
)

// board is the append-only whiteboard operation log. Sequence numbers are
// assigned here, under the room serializer, which makes acceptance order the
// total order; wall-clock time plays no part. Undo and redo append inverse
// marker ops referencing the target sequence number; history is never
// rewritten or deleted.
type board struct {
	log    []model.BoardOp
	seq    int64
	undone map[int64]bool
	// redoable holds, per author, the stack of undone ops eligible for
	// redo. Any newer op from the same author invalidates the stack.
	redoable map[string][]int64
}

func newBoard() *board {
	return &board{
		undone:   make(map[int64]bool),
		redoable: make(map[string][]int64),
	}
}

func (b *board) lastSeq() int64 { return b.seq }

func (b *board) ops() []model.BoardOp { return b.log }

func (b *board) append(op model.BoardOp) model.BoardOp {
	b.seq++
	op.Seq = b.seq
	b.log = append(b.log, op)
	return op
}

// appendDraw records a normal drawing operation and closes the author's redo
// window: redo never crosses causally newer work.
func (b *board) appendDraw(authorID string, typ model.BoardOpType, payload []byte, now time.Time) model.BoardOp {
	delete(b.redoable, authorID)
	return b.append(model.BoardOp{
		AuthorID:  authorID,
		Type:      typ,
		Payload:   payload,
		CreatedAt: now,
	})
}

// undo inverts the author's most recent non-undone operation. Returns the
// appended undo marker, or false when nothing is undoable.
func (b *board) undo(authorID string, now time.Time) (model.BoardOp, bool) {
	for i := len(b.log) - 1; i >= 0; i-- {
		op := b.log[i]
		if op.AuthorID != authorID || !isDrawOp(op.Type) || b.undone[op.Seq] {
			continue
		}
		b.undone[op.Seq] = true
		b.redoable[authorID] = append(b.redoable[authorID], op.Seq)
		marker := b.append(model.BoardOp{
			AuthorID:  authorID,
			Type:      model.OpUndo,
			TargetSeq: op.Seq,
			CreatedAt: now,
		})
		return marker, true
	}
	return model.BoardOp{}, false
}

// redo re-applies the author's most recently undone operation. Returns false
// when the redo window is empty or was invalidated by newer work.
func (b *board) redo(authorID string, now time.Time) (model.BoardOp, bool) {
	stack := b.redoable[authorID]
	if len(stack) == 0 {
		return model.BoardOp{}, false
	}
	target := stack[len(stack)-1]
	b.redoable[authorID] = stack[:len(stack)-1]
	delete(b.undone, target)
	marker := b.append(model.BoardOp{
		AuthorID:  authorID,
		Type:      model.OpRedo,
		TargetSeq: target,
		CreatedAt: now,
	})
	return marker, true
}

// visible replays the log: draw ops in sequence order, minus those currently
// inverted. This is the state a freshly joining client renders.
func (b *board) visible() []model.BoardOp {
	out := make([]model.BoardOp, 0, len(b.log))
	for _, op := range b.log {
		if isDrawOp(op.Type) && !b.undone[op.Seq] {
			out = append(out, op)
		}
	}
	return out
}

func isDrawOp(t model.BoardOpType) bool {
	switch t {
	case model.OpStroke, model.OpShape, model.OpText, model.OpErase, model.OpClear:
		return true
	}
	return false
}

func (r *Room) boardAppend(p *model.Participant, pl model.BoardOpPayload) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	if !isDrawOp(pl.Type) {
		return errValidation("unknown whiteboard op type: " + string(pl.Type))
	}
	op := r.board.appendDraw(p.ID, pl.Type, pl.Payload, r.now())
	r.bus.BroadcastToRoom(r.info.ID, model.EvtBoardApplied, op)
	return nil
}

func (r *Room) boardUndo(p *model.Participant) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	marker, ok := r.board.undo(p.ID, r.now())
	if !ok {
		return errNotFound("nothing to undo")
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtBoardApplied, marker)
	return nil
}

func (r *Room) boardRedo(p *model.Participant) error {
	if err := requireJoined(p); err != nil {
		return err
	}
	marker, ok := r.board.redo(p.ID, r.now())
	if !ok {
		return errConflict("nothing to redo", nil)
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtBoardApplied, marker)
	return nil
}

// boardCursor travels on the lossy path: no sequence number, no log entry,
// no retry. Only the latest position per participant matters.
func (r *Room) boardCursor(p *model.Participant, pl model.CursorPayload) {
	if p.Status != model.ParticipantJoined {
		return
	}
	r.bus.BroadcastToRoom(r.info.ID, model.EvtCursorMoved, model.CursorPosition{
		ParticipantID: p.ID,
		X:             pl.X,
		Y:             pl.Y,
	})
}
