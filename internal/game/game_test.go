package game

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/repository"
)

var errRedisDown = errors.New("redis down")

type memoryRepo struct {
	boards  map[string]*entity.Board
	saves   int
	saveErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{boards: map[string]*entity.Board{}}
}

func (that *memoryRepo) Save(_ context.Context, id string, board *entity.Board) error {
	if that.saveErr != nil {
		return that.saveErr
	}

	copied := *board
	that.boards[id] = &copied
	that.saves++

	return nil
}

func (that *memoryRepo) GetByID(_ context.Context, id string) (*entity.Board, error) {
	board, ok := that.boards[id]
	if !ok {
		return nil, repository.ErrBoardNotFound
	}

	copied := *board

	return &copied, nil
}

func (that *memoryRepo) DeleteByID(_ context.Context, id string) error {
	if _, ok := that.boards[id]; !ok {
		return repository.ErrBoardNotFound
	}

	delete(that.boards, id)

	return nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSession(t *testing.T) {
	// When: a new session is created
	session := NewSession(newLogger(), "000", nil)

	// Then: X starts on an empty board
	assert.Equal(t, entity.MarkX, session.Turn)
	assert.Equal(t, StatusOngoing, session.Status)
	assert.Equal(t, entity.NewBoard(), session.Board)
	assert.Equal(t, entity.Empty, session.Winner)
}

func TestSession_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("MakeMove", func(t *testing.T) {
		// Given: a new session
		session := NewSession(newLogger(), "000", nil)

		// When: X plays the centre in lower case
		err := session.MakeMove(ctx, "x 1 1")

		// Then: the mark is placed and the turn switches
		require.NoError(t, err)
		cell, err := session.Board.Cell(1, 1)
		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, cell)
		assert.Equal(t, entity.MarkO, session.Turn)
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		// Given: a new session
		session := NewSession(newLogger(), "000", nil)

		// When: O moves first
		err := session.MakeMove(ctx, "O 0 0")

		// Then: ErrNotYourTurn is returned and the board is untouched
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, entity.NewBoard(), session.Board)
		assert.Equal(t, entity.MarkX, session.Turn)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: X holds the corner
		session := NewSession(newLogger(), "000", nil)
		require.NoError(t, session.MakeMove(ctx, "X 0 0"))

		// When: O plays the same corner
		err := session.MakeMove(ctx, "O 0 0")

		// Then: the move is rejected and O keeps the turn
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, entity.MarkO, session.Turn)
	})

	t.Run("Error on malformed input", func(t *testing.T) {
		session := NewSession(newLogger(), "000", nil)

		for _, input := range []string{"", "X 1", "XX 1 1", "X a 1", "X 1 b", "X 1 1 1"} {
			err := session.MakeMove(ctx, input)
			require.ErrorIs(t, err, apperror.ErrInvalidMove, input)
		}
	})

	t.Run("Error on invalid mark and bounds", func(t *testing.T) {
		session := NewSession(newLogger(), "000", nil)

		require.ErrorIs(t, session.MakeMove(ctx, "Y 1 1"), apperror.ErrInvalidMark)
		require.ErrorIs(t, session.MakeMove(ctx, "X 3 1"), apperror.ErrOutOfBounds)
		require.ErrorIs(t, session.MakeMove(ctx, "X 1 -1"), apperror.ErrOutOfBounds)
	})

	t.Run("Finishes on a win", func(t *testing.T) {
		// Given: X is about to complete the top row
		session := NewSession(newLogger(), "000", nil)
		for _, move := range []string{"X 0 0", "O 1 0", "X 0 1", "O 1 1"} {
			require.NoError(t, session.MakeMove(ctx, move))
		}

		// When: X completes it
		require.NoError(t, session.MakeMove(ctx, "X 0 2"))

		// Then: the game is finished with X as the winner
		assert.True(t, session.IsFinished())
		assert.Equal(t, entity.MarkX, session.Winner)
		assert.Equal(t, entity.Empty, session.Turn)

		// And: no more moves are accepted
		require.ErrorIs(t, session.MakeMove(ctx, "O 2 2"), apperror.ErrGameFinished)
	})
}

func TestSession_Play(t *testing.T) {
	ctx := context.Background()

	t.Run("Plays a draw and reports rejected moves", func(t *testing.T) {
		// Given: moves for a drawn game with a few mistakes in between
		moves := strings.Join([]string{
			"X 0 0", "O 0 1", "X 0 2",
			"X 1 1", // out of turn
			"O 1 1", "X 1 0", "O 1 2",
			"O 2 0", // out of turn
			"X 2 1", "O 2 0",
			"o 2 2", // out of turn
			"X 9 9", // out of bounds
			"X 2 2",
		}, "\n")

		session := NewSession(newLogger(), "000", nil)
		var out bytes.Buffer

		// When: the game is played
		err := session.Play(ctx, strings.NewReader(moves), &out)

		// Then: it ends in a draw
		require.NoError(t, err)
		assert.True(t, session.IsFinished())
		assert.Equal(t, entity.Empty, session.Winner)
		assert.True(t, session.Board.IsFull())
		assert.Contains(t, out.String(), "It's a draw!")
		assert.Contains(t, out.String(), apperror.ErrNotYourTurn.Error())
		assert.Contains(t, out.String(), apperror.ErrOutOfBounds.Error())
		assert.True(t, strings.HasSuffix(out.String(), " X | O | X \n---------\n X | O | O \n---------\n O | X | X \nIt's a draw!\n"))
	})

	t.Run("Announces the winner", func(t *testing.T) {
		moves := "X 0 2\nO 0 0\nX 1 1\nO 0 1\nX 2 0\n"

		session := NewSession(newLogger(), "000", nil)
		var out bytes.Buffer

		err := session.Play(ctx, strings.NewReader(moves), &out)

		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, session.Winner)
		assert.Contains(t, out.String(), "Player X wins!")
	})

	t.Run("Error when input ends early", func(t *testing.T) {
		session := NewSession(newLogger(), "000", nil)

		err := session.Play(ctx, strings.NewReader("X 0 0\n"), io.Discard)

		require.ErrorIs(t, err, ErrInputClosed)
	})

	t.Run("Error when context is canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		session := NewSession(newLogger(), "000", nil)

		err := session.Play(canceled, strings.NewReader("X 0 0\n"), io.Discard)

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Stops on storage failure", func(t *testing.T) {
		// Given: a repository that cannot save
		repo := newMemoryRepo()
		repo.saveErr = errRedisDown
		session := NewSession(newLogger(), "000", repo)

		// When: a move is played
		err := session.Play(ctx, strings.NewReader("X 0 0\n"), io.Discard)

		// Then: the storage error is returned
		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestSession_Persistence(t *testing.T) {
	ctx := context.Background()

	t.Run("Saves after every move and deletes when finished", func(t *testing.T) {
		// Given: a session backed by a repository
		repo := newMemoryRepo()
		session := NewSession(newLogger(), "room", repo)

		// When: two moves are played
		require.NoError(t, session.MakeMove(ctx, "X 0 0"))
		require.NoError(t, session.MakeMove(ctx, "O 1 1"))

		// Then: the latest board is stored
		assert.Equal(t, 2, repo.saves)
		stored, err := repo.GetByID(ctx, "room")
		require.NoError(t, err)
		assert.Equal(t, session.Board.String(), stored.String())

		// When: the game is finished
		for _, move := range []string{"X 0 1", "O 2 2", "X 0 2"} {
			require.NoError(t, session.MakeMove(ctx, move))
		}

		// Then: the stored board is removed
		_, err = repo.GetByID(ctx, "room")
		require.ErrorIs(t, err, repository.ErrBoardNotFound)
	})

	t.Run("Resumes a stored board", func(t *testing.T) {
		// Given: a stored board where X and O have both moved once, and X again
		repo := newMemoryRepo()
		board := entity.NewBoard()
		require.NoError(t, board.Place(entity.MarkX, 0, 0))
		require.NoError(t, board.Place(entity.MarkO, 1, 1))
		require.NoError(t, board.Place(entity.MarkX, 2, 2))
		require.NoError(t, repo.Save(ctx, "room", board))

		session := NewSession(newLogger(), "room", repo)

		// When: the session resumes
		require.NoError(t, session.Resume(ctx))

		// Then: the board is restored and it is O's turn
		assert.Equal(t, board.String(), session.Board.String())
		assert.Equal(t, entity.MarkO, session.Turn)
	})

	t.Run("Starts fresh when nothing is stored", func(t *testing.T) {
		session := NewSession(newLogger(), "room", newMemoryRepo())

		require.NoError(t, session.Resume(ctx))

		assert.Equal(t, entity.NewBoard(), session.Board)
		assert.Equal(t, entity.MarkX, session.Turn)
	})

	t.Run("Drops a finished stored board", func(t *testing.T) {
		// Given: a stored board that X already won
		repo := newMemoryRepo()
		board := entity.NewBoard()
		for col := range entity.Size {
			require.NoError(t, board.Place(entity.MarkX, 0, col))
		}
		require.NoError(t, repo.Save(ctx, "room", board))

		session := NewSession(newLogger(), "room", repo)

		// When: the session resumes
		require.NoError(t, session.Resume(ctx))

		// Then: a fresh board is used and the stored one is gone
		assert.Equal(t, entity.NewBoard(), session.Board)
		_, err := repo.GetByID(ctx, "room")
		require.ErrorIs(t, err, repository.ErrBoardNotFound)
	})
}
