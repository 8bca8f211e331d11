package live

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduforum/internal/model"
)

func draw(t *testing.T, r *Room, p *model.Participant, typ model.BoardOpType) {
	t.Helper()
	require.NoError(t, r.boardAppend(p, model.BoardOpPayload{
		Type:    typ,
		Payload: json.RawMessage(`{"points":[[0,0],[1,1]]}`),
	}))
}

func visibleSeqs(b *board) []int64 {
	out := make([]int64, 0, len(b.log))
	for _, op := range b.visible() {
		out = append(out, op.Seq)
	}
	return out
}

func TestBoardSequencesAreAssignedInAcceptanceOrder(t *testing.T) {
	r, bus, _, ps := newActiveRoom(t, 1)
	a := ps[1]

	draw(t, r, a, model.OpStroke)
	draw(t, r, a, model.OpShape)
	draw(t, r, a, model.OpText)

	require.Len(t, r.board.log, 3)
	for i, op := range r.board.log {
		assert.Equal(t, int64(i+1), op.Seq)
		assert.Equal(t, a.ID, op.AuthorID)
	}
	assert.Equal(t, int64(3), r.board.lastSeq())
	assert.Equal(t, 3, bus.count(model.EvtBoardApplied))
}

func TestUndoAppendsMarkerAndHidesTarget(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	a := ps[1]

	draw(t, r, a, model.OpStroke)
	draw(t, r, a, model.OpShape)

	require.NoError(t, r.boardUndo(a))

	// History grows; nothing is ever rewritten.
	require.Len(t, r.board.log, 3)
	marker := r.board.log[2]
	assert.Equal(t, model.OpUndo, marker.Type)
	assert.Equal(t, int64(2), marker.TargetSeq)
	assert.Equal(t, int64(3), marker.Seq)

	assert.Equal(t, []int64{1}, visibleSeqs(r.board))
}

func TestRedoRestoresUndoneOp(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	a := ps[1]

	draw(t, r, a, model.OpStroke)
	draw(t, r, a, model.OpShape)
	require.NoError(t, r.boardUndo(a))
	require.NoError(t, r.boardRedo(a))

	assert.Equal(t, []int64{1, 2}, visibleSeqs(r.board))
	marker := r.board.log[3]
	assert.Equal(t, model.OpRedo, marker.Type)
	assert.Equal(t, int64(2), marker.TargetSeq)
}

func TestUndoUndoWalksBackwards(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	a := ps[1]

	draw(t, r, a, model.OpStroke)
	draw(t, r, a, model.OpShape)
	require.NoError(t, r.boardUndo(a))
	require.NoError(t, r.boardUndo(a))

	assert.Empty(t, visibleSeqs(r.board))

	// Redo pops in reverse undo order.
	require.NoError(t, r.boardRedo(a))
	assert.Equal(t, []int64{1}, visibleSeqs(r.board))
	require.NoError(t, r.boardRedo(a))
	assert.Equal(t, []int64{1, 2}, visibleSeqs(r.board))
}

func TestNewDrawInvalidatesRedo(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	a := ps[1]

	draw(t, r, a, model.OpStroke)
	require.NoError(t, r.boardUndo(a))
	draw(t, r, a, model.OpShape)

	err := r.boardRedo(a)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeStateConflict))
}

func TestUndoTouchesOwnOpsOnly(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 2)
	a, b := ps[1], ps[2]

	draw(t, r, a, model.OpStroke)

	err := r.boardUndo(b)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, []int64{1}, visibleSeqs(r.board))

	// Interleaved authorship: each author unwinds their own trail.
	draw(t, r, b, model.OpShape)
	draw(t, r, a, model.OpText)
	require.NoError(t, r.boardUndo(b))
	assert.Equal(t, []int64{1, 3}, visibleSeqs(r.board))
}

func TestUndoOnEmptyBoardRejected(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	err := r.boardUndo(ps[1])
	assert.True(t, IsCode(err, CodeNotFound))
}

func TestUnknownOpTypeRejected(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	err := r.boardAppend(ps[1], model.BoardOpPayload{Type: model.BoardOpType("scribble")})
	assert.True(t, IsCode(err, CodeValidation))
	assert.Empty(t, r.board.log)
}

func TestCursorIsLossyAndUnlogged(t *testing.T) {
	r, bus, _, ps := newActiveRoom(t, 1)
	a := ps[1]

	r.boardCursor(a, model.CursorPayload{X: 0.4, Y: 0.6})

	assert.Empty(t, r.board.log, "cursor moves never enter the op log")
	assert.Equal(t, int64(0), r.board.lastSeq())

	ev, ok := bus.last(model.EvtCursorMoved)
	require.True(t, ok)
	pos, ok := ev.payload.(model.CursorPosition)
	require.True(t, ok)
	assert.Equal(t, a.ID, pos.ParticipantID)
	assert.Equal(t, 0.4, pos.X)
}

func TestArchiveCarriesFullOpLog(t *testing.T) {
	r, _, _, ps := newActiveRoom(t, 1)
	arch := &fakeArchiver{}
	r.archiver = arch
	a := ps[1]

	draw(t, r, a, model.OpStroke)
	require.NoError(t, r.boardUndo(a))

	require.NoError(t, r.endRoom(testHostUser))
	require.Len(t, arch.archives, 1)
	// Both the draw and its undo marker survive: the log is append-only.
	assert.Len(t, arch.archives[0].BoardOps, 2)
}
