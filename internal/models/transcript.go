package models

import "time"

// AnswerSource records where an answer came from.
type AnswerSource string

const (
	// SourceInternal marks answers extracted from the vector knowledge base.
	SourceInternal AnswerSource = "internal"
	// SourceExternal marks answers generated without internal evidence.
	SourceExternal AnswerSource = "external"
)

// Answer is the result of answering one question. Guard and diagnostic
// messages carry an empty Source and are not persisted.
type Answer struct {
	Text   string       `json:"text"`
	Source AnswerSource `json:"source,omitempty"`
}

// TranscriptEntry is the append-only record of one answered question.
type TranscriptEntry struct {
	ID        string    `bson:"id" json:"id"`
	Question  string    `bson:"question" json:"question"`
	Answer    string    `bson:"answer" json:"answer"`
	Source    string    `bson:"source" json:"source"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
