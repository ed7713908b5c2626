package domain

import "time"

// CardType distinguishes the two faces generated for each word:
// a normal card asks for the translation, an inverted card asks for the word.
type CardType string

const (
	CardTypeNormal   CardType = "normal"
	CardTypeInverted CardType = "inverted"
)

// Word is a vocabulary entry imported from a source.
type Word struct {
	ID          int64
	Text        string
	Translation string
	Example     string
	Hash        string
	CategoryID  int64 // 0 when uncategorized
	ImageFile   string
	AudioFile   string
}

// Card is a studyable face of a word.
type Card struct {
	ID     int64
	WordID int64
	Type   CardType
}

// CardListItem is the card payload handed to clients when a session starts.
type CardListItem struct {
	ID               int64    `json:"id"`
	WordID           int64    `json:"word_id"`
	WordText         string   `json:"word_text"`
	WordTranslation  string   `json:"word_translation"`
	CardType         CardType `json:"card_type"`
	ImageFile        string   `json:"image_file,omitempty"`
	AudioFile        string   `json:"audio_file,omitempty"`
	IsInLearningMode bool     `json:"is_in_learning_mode"`
}

// ReviewLog records a single submitted answer. Entries are append-only and
// immutable once written; the retention estimator reads nothing else.
type ReviewLog struct {
	CardID             int64
	SessionID          string
	AnsweredAt         time.Time
	Quality            int
	TimeSpentSeconds   float64
	IntervalDaysBefore float64
	IntervalDaysAfter  float64
}
