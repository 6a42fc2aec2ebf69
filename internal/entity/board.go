package entity

import "errors"

type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

const BoardSize = 9

var (
	ErrInvalidCell = errors.New("invalid cell index")

	// WinCombos are checked in this order: rows, columns, diagonals.
	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Board is a row-major 3x3 grid, index = row*3+col.
type Board [BoardSize]Mark

// Result is what Evaluate reports about a board.
type Result struct {
	Winner Mark  `json:"winner"`
	Line   []int `json:"line"`
}

// Evaluate returns the first winning line of board in WinCombos order.
// Winner is Empty and Line is empty when no line is complete.
func Evaluate(board Board) Result {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return Result{Winner: a, Line: []int{combo[0], combo[1], combo[2]}}
		}
	}

	return Result{Winner: Empty, Line: []int{}}
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == Empty {
			return false
		}
	}

	return true
}

func (that Board) With(cell int, mark Mark) Board {
	that[cell] = mark
	return that
}

func (that Mark) Opponent() Mark {
	switch that {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ValidHistory reports whether every snapshot differs from its predecessor
// in exactly one cell that went from Empty to X or O.
func ValidHistory(history []Board) bool {
	for i := 1; i < len(history); i++ {
		changed := 0
		for cell := range history[i] {
			prev, next := history[i-1][cell], history[i][cell]
			if prev == next {
				continue
			}
			if prev != Empty || (next != X && next != O) {
				return false
			}
			changed++
		}
		if changed != 1 {
			return false
		}
	}

	return true
}
