package entity

import (
	"fmt"
	"slices"
)

// View is the read-only snapshot a display renders.
type View struct {
	ID          string  `json:"id"`
	State       State   `json:"state"`
	Board       Board   `json:"board"`
	Turn        Mark    `json:"turn"`
	Round       int     `json:"round"`
	Moves       int     `json:"moves"`
	BestOf      int     `json:"best_of"`
	Threshold   int     `json:"threshold"`
	Players     Players `json:"players"`
	Score       Score   `json:"score"`
	Winner      Mark    `json:"winner"`
	WinningLine []int   `json:"winning_line"`
	Status      string  `json:"status"`
	Outcome     string  `json:"outcome,omitempty"`
	ScoreLine   string  `json:"score_line,omitempty"`
	Result      string  `json:"result,omitempty"`
	Notice      string  `json:"notice,omitempty"`
}

func (that *Series) Snapshot() View {
	view := View{
		ID:          that.ID,
		State:       that.State,
		Board:       that.Current(),
		Turn:        that.Turn,
		Round:       that.Round,
		Moves:       max(len(that.History)-1, 0),
		BestOf:      that.Config.BestOf,
		Threshold:   that.Config.Threshold(),
		Players:     that.Config.Players,
		Score:       that.Score,
		Winner:      that.Winner,
		WinningLine: slices.Clone(that.WinningLine),
		Result:      that.Result,
		Notice:      that.Notice,
	}

	if view.WinningLine == nil {
		view.WinningLine = []int{}
	}

	switch that.State {
	case StateSetup:
		view.Status = "Setup the Game"
	case StateInRound:
		view.Status = "Next player: " + string(that.Turn)
	case StateRoundOver, StateSeriesOver:
		view.Status = "Game Over"
		if that.Winner == Empty {
			view.Outcome = "It's a draw!"
		} else {
			view.Outcome = "Winner: " + string(that.Winner)
		}
	}

	if that.State != StateSetup && that.Score.Completed() > 0 {
		view.ScoreLine = fmt.Sprintf("%s %d %s %d (Best of %d)",
			that.Config.Players.X, that.Score.X, that.Config.Players.O, that.Score.O, that.Config.BestOf)
	}

	return view
}
