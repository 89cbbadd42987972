package main

import (
	"cardclash/server/battle"
	"cardclash/server/catalog"
)

type joinResponse struct {
	ID   string         `json:"id"`
	Deck []catalog.Card `json:"deck"`
	Pity pityView       `json:"pity"`
}

type pityView struct {
	CurrentCount int `json:"currentCount"`
	Threshold    int `json:"threshold"`
}

type rollRequest struct {
	PlayerID string       `json:"playerId"`
	Count    int          `json:"count"`
	Auto     *autoRequest `json:"auto,omitempty"`
}

type autoRequest struct {
	MaxRolls     int    `json:"maxRolls"`
	BatchSize    int    `json:"batchSize"`
	StopAtRarity string `json:"stopAtRarity,omitempty"`
}

type rollView struct {
	CardID        string `json:"cardId"`
	Symbol        string `json:"symbol"`
	Rarity        string `json:"rarity"`
	PityTriggered bool   `json:"pityTriggered"`
	RollCount     int    `json:"rollCount"`
}

type rollResponse struct {
	PlayerID string     `json:"playerId"`
	Results  []rollView `json:"results"`
	Pity     pityView   `json:"pity"`
}

type ratesResponse struct {
	Rates            map[string]float64 `json:"rates"`
	GuaranteedRareAt int                `json:"guaranteedRareAt"`
}

type battleRequest struct {
	PlayerA     string `json:"playerA"`
	PlayerB     string `json:"playerB"`
	TimeLimitMs int64  `json:"timeLimitMs,omitempty"`
}

type battleResponse struct {
	BattleID string `json:"battleId"`
}

type clientMessage struct {
	Type     string `json:"type"`
	BattleID string `json:"battleId,omitempty"`
}

type frameMessage struct {
	Type  string       `json:"type"`
	Frame battle.Frame `json:"frame"`
}

type errorResponse struct {
	Error string `json:"error"`
}
