package convo

import (
	"strings"
	"testing"
)

func TestIsConversational(t *testing.T) {
	conversational := []string{
		"hello",
		"Hello!",
		"  hey  ",
		"can you hear me",
		"CAN YOU HEAR ME?",
		"testing one two three",
		"how are you today",
		"are you there",
		"am i audible",
	}
	for _, q := range conversational {
		if !IsConversational(q) {
			t.Errorf("IsConversational(%q) = false, want true", q)
		}
	}

	technical := []string{
		"how do I set up authentication in Next.js 14",
		"drizzle orm migrations with postgres",
		"what does useEffect do",
		"",
	}
	for _, q := range technical {
		if IsConversational(q) {
			t.Errorf("IsConversational(%q) = true, want false", q)
		}
	}
}

func TestIsConversationalSubstringLimitation(t *testing.T) {
	// Documented heuristic limitation: a technical query containing a
	// greeting substring is classified conversational.
	if !IsConversational("hey, how do hooks work") {
		t.Error("expected greeting substring to win")
	}
}

func TestReply(t *testing.T) {
	t.Run("specific phrase gets its reply", func(t *testing.T) {
		reply := Reply("Can you hear me?")
		if !strings.Contains(reply, "hear you") {
			t.Errorf("unexpected reply for hearing check: %q", reply)
		}
	})

	t.Run("longer phrase wins over shorter", func(t *testing.T) {
		// "testing" contains "test"; the reply must come from one of
		// them, not from a generic greeting.
		reply := Reply("testing")
		if !strings.Contains(reply, "Test received") {
			t.Errorf("unexpected reply for testing: %q", reply)
		}
	})

	t.Run("never empty", func(t *testing.T) {
		inputs := []string{"hello", "hi", "hey", "something unmatched", ""}
		for _, q := range inputs {
			if Reply(q) == "" {
				t.Errorf("Reply(%q) returned empty string", q)
			}
		}
	})
}
