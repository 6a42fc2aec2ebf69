package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-series/internal/apperror"
)

// drawMoves fills the board without a line when X opens the round.
var drawMoves = []int{0, 1, 2, 4, 3, 5, 7, 6, 8}

func startedSeries(t *testing.T, bestOf int) *Series {
	t.Helper()

	series := NewSeries("session")
	series.Configure(Players{X: "Alice", O: "Bob"})
	series.SelectBestOf(bestOf)
	require.NoError(t, series.Start())

	return series
}

func playAll(t *testing.T, series *Series, cells ...int) {
	t.Helper()

	for _, cell := range cells {
		applied, err := series.Play(cell)
		require.NoError(t, err)
		require.True(t, applied, "move on cell %d was ignored", cell)
	}
}

// winRound makes mark complete the top row, whoever opens the round.
func winRound(t *testing.T, series *Series, mark Mark) {
	t.Helper()

	if series.Turn == mark {
		playAll(t, series, 0, 3, 1, 4, 2)
	} else {
		playAll(t, series, 3, 0, 4, 1, 8, 2)
	}

	require.Equal(t, StateRoundOver, series.State)
	require.Equal(t, mark, series.Winner)
}

func TestNewSeries(t *testing.T) {
	// Given: a new series
	series := NewSeries("abc")

	// Then: it starts in setup with default configuration
	assert.Equal(t, "abc", series.ID)
	assert.Equal(t, StateSetup, series.State)
	assert.Equal(t, DefaultConfig(), series.Config)
	assert.Equal(t, Score{}, series.Score)
	assert.Equal(t, 1, series.Round)
	assert.Equal(t, []Board{{}}, series.History)
	assert.Equal(t, X, series.Turn)
}

func TestSeries_Start(t *testing.T) {
	t.Run("Rejects empty X name", func(t *testing.T) {
		// Given: a setup with only O named
		series := NewSeries("s")
		series.Configure(Players{X: "", O: "Bob"})

		// When: starting the series
		err := series.Start()

		// Then: the start is rejected and the series stays in setup
		require.ErrorIs(t, err, apperror.ErrInvalidSetup)
		assert.Equal(t, StateSetup, series.State)
		assert.Equal(t, apperror.SetupValidationMessage, series.Notice)
	})

	t.Run("Rejects whitespace-only names", func(t *testing.T) {
		series := NewSeries("s")
		series.Configure(Players{X: "Alice", O: "   "})

		err := series.Start()

		require.ErrorIs(t, err, apperror.ErrInvalidSetup)
		assert.Equal(t, StateSetup, series.State)
	})

	t.Run("Rejects best-of outside the allowed set", func(t *testing.T) {
		for _, bestOf := range []int{0, 2, 4, 11, -1} {
			// Given: named players with an unsupported series length
			series := NewSeries("s")
			series.Configure(Players{X: "Alice", O: "Bob"})
			series.SelectBestOf(bestOf)

			// When: starting the series
			err := series.Start()

			// Then: the start is rejected
			require.ErrorIs(t, err, apperror.ErrInvalidSetup, "best of %d", bestOf)
			assert.Equal(t, StateSetup, series.State)
		}
	})

	t.Run("Starts round one with X to move", func(t *testing.T) {
		// Given: a valid setup
		series := NewSeries("s")
		series.Configure(Players{X: " Alice ", O: "Bob"})
		series.SelectBestOf(5)

		// When: starting the series
		err := series.Start()

		// Then: play begins in round one
		require.NoError(t, err)
		assert.Equal(t, StateInRound, series.State)
		assert.Equal(t, 1, series.Round)
		assert.Equal(t, X, series.Turn)
		assert.Equal(t, Score{}, series.Score)
		assert.Equal(t, []Board{{}}, series.History)
		assert.Equal(t, "Alice", series.Config.Players.X)
		assert.Empty(t, series.Notice)
	})

	t.Run("Is ignored once play started", func(t *testing.T) {
		series := startedSeries(t, 3)
		playAll(t, series, 4)

		require.NoError(t, series.Start())

		assert.Len(t, series.History, 2)
	})
}

func TestSeries_ConfigurationIsFrozen(t *testing.T) {
	// Given: a series in play
	series := startedSeries(t, 3)

	// When: editing the configuration
	configured := series.Configure(Players{X: "Carol", O: "Dave"})
	selected := series.SelectBestOf(9)

	// Then: nothing changes
	assert.False(t, configured)
	assert.False(t, selected)
	assert.Equal(t, SeriesConfig{Players: Players{X: "Alice", O: "Bob"}, BestOf: 3}, series.Config)
}

func TestSeries_SelectBestOfClearsProgress(t *testing.T) {
	// Given: a setup carrying leftover progress
	series := NewSeries("s")
	series.Score = Score{X: 1, O: 2, Draws: 1}
	series.Round = 4
	series.History = []Board{{}, {X}}

	// When: a new series length is selected
	series.SelectBestOf(7)

	// Then: round counter, score and history are re-zeroed
	assert.Equal(t, 7, series.Config.BestOf)
	assert.Equal(t, Score{}, series.Score)
	assert.Equal(t, 1, series.Round)
	assert.Equal(t, []Board{{}}, series.History)
}

func TestSeries_Play(t *testing.T) {
	t.Run("Appends a snapshot and toggles the turn", func(t *testing.T) {
		series := startedSeries(t, 1)

		applied, err := series.Play(4)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, []Board{{}, {4: X}}, series.History)
		assert.Equal(t, O, series.Turn)
	})

	t.Run("Ignores an occupied cell", func(t *testing.T) {
		// Given: X took the centre
		series := startedSeries(t, 1)
		playAll(t, series, 4)

		// When: O clicks the centre
		applied, err := series.Play(4)

		// Then: history and turn are unchanged
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Len(t, series.History, 2)
		assert.Equal(t, O, series.Turn)
	})

	t.Run("Rejects a cell outside the board", func(t *testing.T) {
		series := startedSeries(t, 1)

		for _, cell := range []int{-1, 9, 20} {
			applied, err := series.Play(cell)

			require.ErrorIs(t, err, ErrInvalidCell)
			assert.False(t, applied)
		}
		assert.Len(t, series.History, 1)
	})

	t.Run("Ignores clicks during setup", func(t *testing.T) {
		series := NewSeries("s")

		applied, err := series.Play(0)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Len(t, series.History, 1)
	})

	t.Run("Ignores clicks once the round is over", func(t *testing.T) {
		// Given: X has won the round
		series := startedSeries(t, 3)
		playAll(t, series, 0, 3, 1, 4, 2)
		score := series.Score
		history := len(series.History)

		// When: clicking an empty cell
		applied, err := series.Play(8)

		// Then: nothing changes
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, score, series.Score)
		assert.Len(t, series.History, history)
	})

	t.Run("Keeps a valid history", func(t *testing.T) {
		series := startedSeries(t, 1)
		playAll(t, series, drawMoves...)

		assert.Len(t, series.History, 10)
		assert.True(t, ValidHistory(series.History))
	})
}

func TestSeries_BestOfOneWin(t *testing.T) {
	// Given: a best-of-one series
	series := startedSeries(t, 1)

	// When: X completes the top row while O plays 3 and 4
	playAll(t, series, 0, 3, 1, 4, 2)

	// Then: the round is won by X on the top row
	assert.Equal(t, StateRoundOver, series.State)
	assert.Equal(t, X, series.Winner)
	assert.Equal(t, []int{0, 1, 2}, series.WinningLine)
	assert.Equal(t, Score{X: 1}, series.Score)

	// When: advancing
	advanced := series.NextRound()

	// Then: the series is over with X's player as champion
	assert.True(t, advanced)
	assert.Equal(t, StateSeriesOver, series.State)
	assert.Equal(t, X, series.Champion)
	assert.Equal(t, "Alice won the series with a score of 1-0", series.Result)
	assert.Equal(t, "GAME OVER! Alice won the series with a score of 1-0", series.Notice)
}

func TestSeries_DrawRound(t *testing.T) {
	// Given: a best-of-three series
	series := startedSeries(t, 3)

	// When: all nine cells are filled without a line
	playAll(t, series, drawMoves...)

	// Then: a draw is recorded and nobody scores
	assert.Equal(t, StateRoundOver, series.State)
	assert.Equal(t, Empty, series.Winner)
	assert.Empty(t, series.WinningLine)
	assert.Equal(t, Score{Draws: 1}, series.Score)

	// When: advancing
	require.True(t, series.NextRound())

	// Then: round two begins
	assert.Equal(t, StateInRound, series.State)
	assert.Equal(t, 2, series.Round)
}

func TestSeries_StartingTurnAlternates(t *testing.T) {
	// Given: a best-of-nine series so no round ends it early
	series := startedSeries(t, 9)
	assert.Equal(t, X, series.Turn)

	expected := map[int]Mark{2: O, 3: X, 4: O}
	winners := []Mark{X, O, X}

	for i, winner := range winners {
		// When: a round is won and the next one begins
		winRound(t, series, winner)
		require.True(t, series.NextRound())

		// Then: the opening mark follows the round parity
		round := i + 2
		assert.Equal(t, round, series.Round)
		assert.Equal(t, expected[round], series.Turn, "round %d", round)
		assert.Equal(t, []Board{{}}, series.History)
		assert.Empty(t, series.WinningLine)
	}
}

func TestStartingMark(t *testing.T) {
	cases := map[int]Mark{1: X, 2: O, 3: X, 4: O, 9: X}

	for round, mark := range cases {
		assert.Equal(t, mark, StartingMark(round), "round %d", round)
	}
}

func TestSeries_EndsAtMajority(t *testing.T) {
	// Given: a best-of-three series
	series := startedSeries(t, 3)

	// When: X wins the first round
	winRound(t, series, X)
	require.True(t, series.NextRound())

	// Then: a second round is played
	assert.Equal(t, StateInRound, series.State)

	// When: X wins the second round and the players advance
	winRound(t, series, X)
	require.True(t, series.NextRound())

	// Then: the series ends 2-0 without a third round
	assert.Equal(t, StateSeriesOver, series.State)
	assert.Equal(t, 2, series.Round)
	assert.Equal(t, Score{X: 2}, series.Score)
	assert.Equal(t, "Alice won the series with a score of 2-0", series.Result)
}

func TestSeries_OWinsSeries(t *testing.T) {
	series := startedSeries(t, 3)

	winRound(t, series, O)
	require.True(t, series.NextRound())
	winRound(t, series, X)
	require.True(t, series.NextRound())
	winRound(t, series, O)
	require.True(t, series.NextRound())

	assert.Equal(t, StateSeriesOver, series.State)
	assert.Equal(t, O, series.Champion)
	assert.Equal(t, "Bob won the series with a score of 1-2", series.Result)
}

func TestSeries_DrawnSeries(t *testing.T) {
	// Given: a best-of-one series
	series := startedSeries(t, 1)

	// When: the only round is drawn and the players advance
	playAll(t, series, drawMoves...)
	require.True(t, series.NextRound())

	// Then: the series ends in a draw
	assert.Equal(t, StateSeriesOver, series.State)
	assert.Equal(t, Empty, series.Champion)
	assert.Equal(t, "The series ended in a draw with a score of 0-0", series.Result)
}

func TestSeries_ScoreInvariant(t *testing.T) {
	series := startedSeries(t, 5)

	winRound(t, series, X)
	require.True(t, series.NextRound())
	// O opens round two; the same cells still draw with the marks swapped.
	playAll(t, series, drawMoves...)
	require.True(t, series.NextRound())

	assert.Equal(t, 2, series.Score.Completed())
	assert.Equal(t, series.Round-1, series.Score.Completed())
}

func TestSeries_NextRoundOutsideRoundOver(t *testing.T) {
	series := startedSeries(t, 3)

	assert.False(t, series.NextRound())
	assert.Equal(t, StateInRound, series.State)
}

func TestSeries_Acknowledge(t *testing.T) {
	t.Run("Returns to setup with defaults", func(t *testing.T) {
		// Given: a finished series
		series := startedSeries(t, 1)
		winRound(t, series, X)
		require.True(t, series.NextRound())

		// When: the result is acknowledged
		acknowledged := series.Acknowledge()

		// Then: configuration and score are back to defaults
		assert.True(t, acknowledged)
		assert.Equal(t, StateSetup, series.State)
		assert.Equal(t, DefaultConfig(), series.Config)
		assert.Equal(t, Score{}, series.Score)
		assert.Equal(t, 1, series.Round)
		assert.Empty(t, series.Result)
		assert.Empty(t, series.Notice)
	})

	t.Run("Is ignored before the series ends", func(t *testing.T) {
		series := startedSeries(t, 1)

		assert.False(t, series.Acknowledge())
		assert.Equal(t, StateInRound, series.State)
	})

	t.Run("Clicks after the series ends are ignored", func(t *testing.T) {
		series := startedSeries(t, 1)
		winRound(t, series, X)
		require.True(t, series.NextRound())
		history := len(series.History)

		applied, err := series.Play(8)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.Len(t, series.History, history)
		assert.Equal(t, Score{X: 1}, series.Score)
	})
}

func TestSeries_Outcome(t *testing.T) {
	finishedAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	t.Run("Available once the series is over", func(t *testing.T) {
		series := startedSeries(t, 1)
		winRound(t, series, O)
		require.True(t, series.NextRound())

		result, ok := series.Outcome("r1", finishedAt)

		require.True(t, ok)
		assert.Equal(t, SeriesResult{
			ID:         "r1",
			SessionID:  "session",
			Players:    Players{X: "Alice", O: "Bob"},
			BestOf:     1,
			Score:      Score{O: 1},
			Champion:   O,
			Summary:    "Bob won the series with a score of 0-1",
			FinishedAt: finishedAt,
		}, result)
	})

	t.Run("Not available during play", func(t *testing.T) {
		series := startedSeries(t, 1)

		_, ok := series.Outcome("r1", finishedAt)

		assert.False(t, ok)
	})
}

func TestSeries_Snapshot(t *testing.T) {
	t.Run("Setup", func(t *testing.T) {
		view := NewSeries("s").Snapshot()

		assert.Equal(t, StateSetup, view.State)
		assert.Equal(t, "Setup the Game", view.Status)
		assert.Empty(t, view.ScoreLine)
		assert.Equal(t, 1, view.Threshold)
	})

	t.Run("In round", func(t *testing.T) {
		series := startedSeries(t, 3)
		playAll(t, series, 4)

		view := series.Snapshot()

		assert.Equal(t, "Next player: O", view.Status)
		assert.Equal(t, 1, view.Moves)
		assert.Equal(t, X, view.Board[4])
		assert.Empty(t, view.Outcome)
		assert.Empty(t, view.ScoreLine)
		assert.Equal(t, 2, view.Threshold)
	})

	t.Run("Round won", func(t *testing.T) {
		series := startedSeries(t, 3)
		winRound(t, series, X)

		view := series.Snapshot()

		assert.Equal(t, "Game Over", view.Status)
		assert.Equal(t, "Winner: X", view.Outcome)
		assert.Equal(t, []int{0, 1, 2}, view.WinningLine)
		assert.Equal(t, "Alice 1 Bob 0 (Best of 3)", view.ScoreLine)
	})

	t.Run("Round drawn", func(t *testing.T) {
		series := startedSeries(t, 3)
		playAll(t, series, drawMoves...)

		view := series.Snapshot()

		assert.Equal(t, "It's a draw!", view.Outcome)
		assert.Equal(t, []int{}, view.WinningLine)
	})

	t.Run("Winning line is a copy", func(t *testing.T) {
		series := startedSeries(t, 3)
		winRound(t, series, X)

		view := series.Snapshot()
		view.WinningLine[0] = 8

		assert.Equal(t, []int{0, 1, 2}, series.WinningLine)
	})
}
