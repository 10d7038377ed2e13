package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
)

const (
	Size = 3

	cellSeparator = "|"
	rowSeparator  = "---------"
)

// Board is a fixed 3x3 grid. Place never overwrites a mark, so a cell
// never goes back to Empty. Start a new game with a new board.
type Board struct {
	cells [Size][Size]Mark
}

func NewBoard() *Board {
	return &Board{}
}

// Place puts mark on (row, col). The mark itself is not validated here,
// callers go through ValidateMark first.
func (that *Board) Place(mark Mark, row, col int) error {
	if err := checkIndex("row", row); err != nil {
		return err
	}

	if err := checkIndex("column", col); err != nil {
		return err
	}

	if occupant := that.cells[row][col]; occupant != Empty {
		return fmt.Errorf("%w by %s", apperror.ErrCellOccupied, occupant)
	}

	that.cells[row][col] = mark

	return nil
}

func (that *Board) Cell(row, col int) (Mark, error) {
	if err := checkIndex("row", row); err != nil {
		return Empty, err
	}

	if err := checkIndex("column", col); err != nil {
		return Empty, err
	}

	return that.cells[row][col], nil
}

// IsFull reports whether no cell is Empty.
func (that *Board) IsFull() bool {
	result := true

	for _, row := range that.cells {
		for _, cell := range row {
			if cell == Empty {
				result = false
			}
		}
	}

	return result
}

// RowMatches reports whether the three cells of a row are equal.
// A row of three Empty cells matches too.
func (that *Board) RowMatches(row int) (bool, error) {
	if err := checkIndex("row", row); err != nil {
		return false, err
	}

	line := that.cells[row]

	return uniform(line[0], line[1], line[2]), nil
}

// ColumnMatches is RowMatches for columns, with the same Empty caveat.
func (that *Board) ColumnMatches(col int) (bool, error) {
	if err := checkIndex("column", col); err != nil {
		return false, err
	}

	return uniform(that.cells[0][col], that.cells[1][col], that.cells[2][col]), nil
}

// DiagonalMatches checks (0,0)-(1,1)-(2,2) and (2,0)-(1,1)-(0,2).
func (that *Board) DiagonalMatches() bool {
	primary := uniform(that.cells[0][0], that.cells[1][1], that.cells[2][2])
	anti := uniform(that.cells[2][0], that.cells[1][1], that.cells[0][2])

	return primary || anti
}

// Winner returns the mark of the last matching line, or Empty.
// Lines are checked as row i, column i for i in 0..2, then the diagonals,
// so a later line overrides an earlier one. Lines of Empty cells match
// but are never recorded.
func (that *Board) Winner() Mark {
	result := Empty

	record := func(candidate Mark) {
		if candidate != Empty {
			result = candidate
		}
	}

	for i := range Size {
		// indexes are always in range here
		if ok, _ := that.RowMatches(i); ok {
			record(that.cells[i][0])
		}

		if ok, _ := that.ColumnMatches(i); ok {
			record(that.cells[0][i])
		}
	}

	if that.DiagonalMatches() {
		record(that.cells[1][1])
	}

	return result
}

// RenderRow formats a row as " X | O |   ".
func (that *Board) RenderRow(row int) (string, error) {
	if err := checkIndex("row", row); err != nil {
		return "", err
	}

	return that.renderRow(row), nil
}

// String renders the whole board, rows separated by a dashed line.
func (that *Board) String() string {
	var sb strings.Builder

	for row := range Size {
		sb.WriteString(that.renderRow(row))
		sb.WriteString("\n")

		if row < Size-1 {
			sb.WriteString(rowSeparator)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (that *Board) renderRow(row int) string {
	cells := make([]string, 0, Size)
	for _, cell := range that.cells[row] {
		cells = append(cells, " "+cell.String()+" ")
	}

	return strings.Join(cells, cellSeparator)
}

type boardJSON struct {
	Cells [Size][Size]Mark `json:"cells"`
}

func (that *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Cells: that.cells})
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var decoded boardJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("could not unmarshal board: %w", err)
	}

	that.cells = decoded.Cells

	return nil
}

func checkIndex(name string, index int) error {
	if index < 0 || index >= Size {
		return fmt.Errorf("%w: %s %d, please enter a number between 0-%d", apperror.ErrOutOfBounds, name, index, Size-1)
	}

	return nil
}

func uniform(a, b, c Mark) bool {
	return a == b && b == c
}
