package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-grid/internal/entity"
	"github.com/rocketscienceinc/tictactoe-grid/internal/repository"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
)

var ErrInputClosed = errors.New("input closed before the game finished")

type boardRepo interface {
	Save(ctx context.Context, id string, board *entity.Board) error
	GetByID(ctx context.Context, id string) (*entity.Board, error)
	DeleteByID(ctx context.Context, id string) error
}

// Session drives one board from the console. X always moves first.
type Session struct {
	logger *slog.Logger
	repo   boardRepo

	ID     string
	Board  *entity.Board
	Turn   entity.Mark
	Winner entity.Mark
	Status string
}

// NewSession creates a session on a fresh board. repo may be nil, then
// nothing is persisted.
func NewSession(logger *slog.Logger, id string, repo boardRepo) *Session {
	return &Session{
		logger: logger.With("component", "game", "game_id", id),
		repo:   repo,

		ID:     id,
		Board:  entity.NewBoard(),
		Turn:   entity.MarkX,
		Status: StatusOngoing,
	}
}

// Resume continues from a stored board if there is one.
func (that *Session) Resume(ctx context.Context) error {
	if that.repo == nil {
		return nil
	}

	board, err := that.repo.GetByID(ctx, that.ID)
	if errors.Is(err, repository.ErrBoardNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("could not load board: %w", err)
	}

	if board.Winner() != entity.Empty || board.IsFull() {
		that.logger.Info("Stored board is already finished, starting a new one")
		return that.cleanup(ctx)
	}

	that.Board = board
	that.Turn = nextTurn(board)
	that.logger.Info("Resumed stored board", "turn", that.Turn.String())

	return nil
}

// MakeMove parses and applies a single "<mark> <row> <column>" line.
func (that *Session) MakeMove(ctx context.Context, input string) error {
	if that.Status == StatusFinished {
		return apperror.ErrGameFinished
	}

	char, row, col, err := parseMove(input)
	if err != nil {
		return err
	}

	mark, err := entity.ValidateMark(char)
	if err != nil {
		return err
	}

	if mark != that.Turn {
		return fmt.Errorf("%w: %s moves now", apperror.ErrNotYourTurn, that.Turn)
	}

	if err = that.Board.Place(mark, row, col); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	that.updateGameStatus(mark)

	if err = that.persist(ctx); err != nil {
		return err
	}

	return nil
}

// Play reads moves from in until the game is finished, writing the board
// to out after every move. Board errors are reported and the player is
// asked again.
func (that *Session) Play(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, that.Board)

	for that.Status != StatusFinished {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("game interrupted: %w", err)
		}

		fmt.Fprintf(out, "Player %s, enter <mark> <row> <column>: ", that.Turn)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("could not read move: %w", err)
			}
			return ErrInputClosed
		}

		if err := that.MakeMove(ctx, scanner.Text()); err != nil {
			if !isPlayerError(err) {
				return err
			}

			that.logger.Debug("Rejected move", "input", scanner.Text(), "error", err)
			fmt.Fprintf(out, "%v\n", err)

			continue
		}

		fmt.Fprint(out, that.Board)
	}

	if that.Winner == entity.Empty {
		fmt.Fprintln(out, "It's a draw!")
	} else {
		fmt.Fprintf(out, "Player %s wins!\n", that.Winner)
	}

	return nil
}

func (that *Session) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Session) updateGameStatus(player entity.Mark) {
	switch winner := that.Board.Winner(); {
	case winner != entity.Empty:
		that.Winner = winner
		that.Status = StatusFinished
		that.Turn = entity.Empty
	case that.Board.IsFull():
		that.Status = StatusFinished
		that.Turn = entity.Empty
	default:
		that.Turn = player.Opponent()
	}
}

func (that *Session) persist(ctx context.Context) error {
	if that.repo == nil {
		return nil
	}

	if that.IsFinished() {
		return that.cleanup(ctx)
	}

	if err := that.repo.Save(ctx, that.ID, that.Board); err != nil {
		return fmt.Errorf("could not save board: %w", err)
	}

	return nil
}

func (that *Session) cleanup(ctx context.Context) error {
	err := that.repo.DeleteByID(ctx, that.ID)
	if err != nil && !errors.Is(err, repository.ErrBoardNotFound) {
		return fmt.Errorf("could not delete board: %w", err)
	}

	return nil
}

func parseMove(input string) (rune, int, int, error) {
	fields := strings.Fields(input)
	if len(fields) != 3 || utf8.RuneCountInString(fields[0]) != 1 {
		return 0, 0, 0, fmt.Errorf("%w: %q", apperror.ErrInvalidMove, input)
	}

	char, _ := utf8.DecodeRuneInString(fields[0])

	row, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: row %q", apperror.ErrInvalidMove, fields[1])
	}

	col, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: column %q", apperror.ErrInvalidMove, fields[2])
	}

	return char, row, col, nil
}

// nextTurn works out whose turn it is from the marks on the board.
func nextTurn(board *entity.Board) entity.Mark {
	var xCount, oCount int

	for row := range entity.Size {
		for col := range entity.Size {
			// indexes are always in range here
			switch cell, _ := board.Cell(row, col); cell {
			case entity.MarkX:
				xCount++
			case entity.MarkO:
				oCount++
			}
		}
	}

	if xCount > oCount {
		return entity.MarkO
	}

	return entity.MarkX
}

func isPlayerError(err error) bool {
	for _, target := range []error{
		apperror.ErrInvalidMove,
		apperror.ErrInvalidMark,
		apperror.ErrNotYourTurn,
		apperror.ErrOutOfBounds,
		apperror.ErrCellOccupied,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
