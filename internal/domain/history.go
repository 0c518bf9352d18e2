package domain

import "time"

// Turn is one prior question/answer exchange in a conversation.
type Turn struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

// HistoryCap bounds a session's conversation history. Oldest turns are
// dropped beyond the cap.
const HistoryCap = 100

// History is a bounded conversation history owned by the caller's
// session. The zero value is ready to use. Not safe for concurrent use;
// the owner synchronizes access.
type History struct {
	turns []Turn
}

// Append records a completed exchange, dropping the oldest turn once
// the cap is reached.
func (h *History) Append(question, answer string) {
	h.turns = append(h.turns, Turn{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if len(h.turns) > HistoryCap {
		h.turns = h.turns[len(h.turns)-HistoryCap:]
	}
}

// Turns returns the recorded turns, oldest first. The slice is shared;
// callers must not mutate it.
func (h *History) Turns() []Turn {
	return h.turns
}

// Len reports the number of recorded turns.
func (h *History) Len() int {
	return len(h.turns)
}
