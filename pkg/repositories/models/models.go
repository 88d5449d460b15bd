package models

import gametypes "github.com/wordgame/fictionary/pkg/game/types"

// ThemeRecord is one backlog entry: a curated theme pre-submitted by a
// community member.
type ThemeRecord struct {
	Author      gametypes.PlayerID `json:"author"`
	Word        string             `json:"word"`
	Reading     string             `json:"reading"`
	Meaning     string             `json:"meaning"`
	SourceLabel string             `json:"sourceLabel"`
	URL         string             `json:"url"`
	CreatedAt   int64              `json:"createdAt"`
	Done        bool               `json:"done"`
}

// StockCount is one author's remaining backlog size.
type StockCount struct {
	Author gametypes.PlayerID `json:"author"`
	Count  int                `json:"count"`
}
