package apperror

import "errors"

var (
	ErrOutOfBounds  = errors.New("index is out of bounds")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidMark  = errors.New("invalid mark, please enter X or O")

	ErrInvalidMove  = errors.New("invalid move, please enter <mark> <row> <column>")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrGameFinished = errors.New("game is already finished")
)
