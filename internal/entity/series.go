package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/tictactoe-series/internal/apperror"
)

type State string

const (
	StateSetup      State = "setup"
	StateInRound    State = "in_round"
	StateRoundOver  State = "round_over"
	StateSeriesOver State = "series_over"
)

const DefaultBestOf = 1

var AllowedBestOf = []int{1, 3, 5, 7, 9}

type SeriesConfig struct {
	Players Players `json:"players"`
	BestOf  int     `json:"best_of"`
}

func DefaultConfig() SeriesConfig {
	return SeriesConfig{BestOf: DefaultBestOf}
}

func (that SeriesConfig) Validate() error {
	if !that.Players.Complete() || !slices.Contains(AllowedBestOf, that.BestOf) {
		return apperror.ErrInvalidSetup
	}

	return nil
}

// Threshold is the number of round wins that takes the series.
func (that SeriesConfig) Threshold() int {
	return (that.BestOf + 1) / 2
}

type Score struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

func (that Score) Of(mark Mark) int {
	switch mark {
	case X:
		return that.X
	case O:
		return that.O
	default:
		return 0
	}
}

func (that Score) Completed() int {
	return that.X + that.O + that.Draws
}

func (that Score) String() string {
	return fmt.Sprintf("%d-%d", that.X, that.O)
}

// Series is the state machine of one best-of-N match between two players.
// It is not safe for concurrent use.
type Series struct {
	ID          string       `json:"id"`
	State       State        `json:"state"`
	Config      SeriesConfig `json:"config"`
	Score       Score        `json:"score"`
	Round       int          `json:"round"`
	History     []Board      `json:"history"`
	Turn        Mark         `json:"turn"`
	Winner      Mark         `json:"winner"`
	WinningLine []int        `json:"winning_line"`
	Champion    Mark         `json:"champion,omitempty"`
	Result      string       `json:"result,omitempty"`
	Notice      string       `json:"notice,omitempty"`
}

// SeriesResult is the archived summary of a finished series.
type SeriesResult struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Players    Players   `json:"players"`
	BestOf     int       `json:"best_of"`
	Score      Score     `json:"score"`
	Champion   Mark      `json:"champion"`
	Summary    string    `json:"summary"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewSeries(id string) *Series {
	series := &Series{ID: id}
	series.reset()

	return series
}

func (that *Series) reset() {
	that.State = StateSetup
	that.Config = DefaultConfig()
	that.Champion = Empty
	that.Result = ""
	that.Notice = ""
	that.clearPlay()
}

// clearPlay re-zeros everything a round or series accumulates.
func (that *Series) clearPlay() {
	that.Score = Score{}
	that.Round = 1
	that.History = []Board{{}}
	that.Turn = X
	that.Winner = Empty
	that.WinningLine = []int{}
}

// Current returns the latest board snapshot.
func (that *Series) Current() Board {
	if len(that.History) == 0 {
		return Board{}
	}

	return that.History[len(that.History)-1]
}

// Configure sets the player names. It only applies during setup.
func (that *Series) Configure(players Players) bool {
	if that.State != StateSetup {
		return false
	}

	that.Config.Players = players
	that.Notice = ""

	return true
}

// SelectBestOf changes the series length during setup and drops any
// partial progress.
func (that *Series) SelectBestOf(bestOf int) bool {
	if that.State != StateSetup {
		return false
	}

	that.Config.BestOf = bestOf
	that.Notice = ""
	that.clearPlay()

	return true
}

// Start leaves setup and begins round one. An invalid configuration is
// rejected with apperror.ErrInvalidSetup and the series stays in setup.
func (that *Series) Start() error {
	if that.State != StateSetup {
		return nil
	}

	if err := that.Config.Validate(); err != nil {
		that.Notice = apperror.SetupValidationMessage
		return err
	}

	that.Config.Players = that.Config.Players.Trimmed()
	that.clearPlay()
	that.State = StateInRound
	that.Notice = ""

	return nil
}

// Play puts the current turn's mark on cell. Clicks on occupied cells or
// outside of a round are ignored and report false.
func (that *Series) Play(cell int) (bool, error) {
	if cell < 0 || cell >= BoardSize {
		return false, fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if that.State != StateInRound {
		return false, nil
	}

	current := that.Current()
	if current[cell] != Empty {
		return false, nil
	}

	next := current.With(cell, that.Turn)
	that.History = append(that.History, next)
	that.Turn = that.Turn.Opponent()
	that.Notice = ""

	that.settleRound(next)

	return true, nil
}

func (that *Series) settleRound(board Board) {
	result := Evaluate(board)

	switch {
	case result.Winner != Empty:
		if result.Winner == X {
			that.Score.X++
		} else {
			that.Score.O++
		}
		that.Winner = result.Winner
		that.WinningLine = result.Line
	case board.IsFull():
		that.Score.Draws++
		that.Winner = Empty
		that.WinningLine = []int{}
	default:
		return
	}

	that.State = StateRoundOver
	that.Turn = Empty
}

// NextRound either starts the next round or, once the series is decided,
// moves to series over with the result exposed.
func (that *Series) NextRound() bool {
	if that.State != StateRoundOver {
		return false
	}

	if that.Decided() {
		that.finish()
		return true
	}

	that.Round++
	that.History = []Board{{}}
	that.Turn = StartingMark(that.Round)
	that.Winner = Empty
	that.WinningLine = []int{}
	that.State = StateInRound
	that.Notice = ""

	return true
}

// Decided reports whether no further round should be played: a player has
// reached the majority, or all BestOf rounds are used up by draws.
func (that *Series) Decided() bool {
	threshold := that.Config.Threshold()

	return that.Score.X >= threshold ||
		that.Score.O >= threshold ||
		that.Score.Completed() >= that.Config.BestOf
}

func (that *Series) finish() {
	switch {
	case that.Score.X > that.Score.O:
		that.Champion = X
	case that.Score.O > that.Score.X:
		that.Champion = O
	default:
		that.Champion = Empty
	}

	if that.Champion == Empty {
		that.Result = "The series ended in a draw with a score of " + that.Score.String()
	} else {
		that.Result = fmt.Sprintf("%s won the series with a score of %s",
			that.Config.Players.Name(that.Champion), that.Score)
	}

	that.Notice = "GAME OVER! " + that.Result
	that.State = StateSeriesOver
	that.Turn = Empty
}

// Acknowledge returns a finished series to setup with default configuration.
func (that *Series) Acknowledge() bool {
	if that.State != StateSeriesOver {
		return false
	}

	that.reset()

	return true
}

// Outcome returns the archive record of a finished series.
func (that *Series) Outcome(id string, finishedAt time.Time) (SeriesResult, bool) {
	if that.State != StateSeriesOver {
		return SeriesResult{}, false
	}

	return SeriesResult{
		ID:         id,
		SessionID:  that.ID,
		Players:    that.Config.Players,
		BestOf:     that.Config.BestOf,
		Score:      that.Score,
		Champion:   that.Champion,
		Summary:    that.Result,
		FinishedAt: finishedAt,
	}, true
}

// StartingMark is the mark that opens the given round: X on odd rounds,
// O on even ones.
func StartingMark(round int) Mark {
	if round%2 == 0 {
		return O
	}

	return X
}
