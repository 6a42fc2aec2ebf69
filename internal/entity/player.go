package entity

import "strings"

// Players holds the display names bound to each mark for a series.
type Players struct {
	X string `json:"x"`
	O string `json:"o"`
}

func (that Players) Name(mark Mark) string {
	switch mark {
	case X:
		return that.X
	case O:
		return that.O
	default:
		return ""
	}
}

func (that Players) Trimmed() Players {
	return Players{
		X: strings.TrimSpace(that.X),
		O: strings.TrimSpace(that.O),
	}
}

func (that Players) Complete() bool {
	trimmed := that.Trimmed()
	return trimmed.X != "" && trimmed.O != ""
}
