package domain

import (
	"fmt"
	"testing"
)

func TestHistory_Append(t *testing.T) {
	var h History

	h.Append("first question", "first answer")
	h.Append("second question", "second answer")

	if h.Len() != 2 {
		t.Fatalf("expected 2 turns, got %d", h.Len())
	}
	turns := h.Turns()
	if turns[0].Question != "first question" || turns[1].Question != "second question" {
		t.Fatalf("turns out of order: %+v", turns)
	}
	if turns[0].Timestamp == "" {
		t.Error("timestamp not recorded")
	}
}

func TestHistory_CapDropsOldest(t *testing.T) {
	var h History
	for i := 0; i < HistoryCap+10; i++ {
		h.Append(fmt.Sprintf("question %d", i), "answer")
	}

	if h.Len() != HistoryCap {
		t.Fatalf("expected %d turns at cap, got %d", HistoryCap, h.Len())
	}
	if got := h.Turns()[0].Question; got != "question 10" {
		t.Fatalf("oldest turns not dropped, first is %q", got)
	}
}

func TestChunkKey(t *testing.T) {
	c := Chunk{Document: "contract", Seq: 7}
	if got := c.Key(); got != "contract_7" {
		t.Fatalf("unexpected key %q", got)
	}
}
