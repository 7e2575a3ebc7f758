// Package convo classifies conversational filler and produces canned
// replies for it, keeping chit-chat out of the documentation pipeline.
package convo

import (
	"math/rand"
	"strings"
)

// phrases trigger the conversational path when they appear anywhere in
// the query. Substring matching is a known-lossy heuristic: "hey, how do
// hooks work" is misclassified as conversational.
var phrases = []string{
	"hello",
	"hi",
	"hey",
	"can you hear me",
	"test",
	"testing",
	"how are you",
	"are you there",
	"are you working",
	"am i audible",
}

// replies maps a phrase to its canned reply. Checked in order; the first
// matching phrase wins.
var replies = []struct {
	phrase string
	reply  string
}{
	{"can you hear me", "Yes, I can hear you loud and clear! Ask me anything about your code or documentation."},
	{"am i audible", "You're coming through perfectly. What would you like to know?"},
	{"are you there", "I'm here and ready to help. What are you working on?"},
	{"are you working", "Everything's working on my end. Ask away!"},
	{"how are you", "I'm doing great, thanks for asking! What can I help you build today?"},
	{"testing", "Test received! I'm listening and ready for your questions."},
	{"test", "Test received! I'm listening and ready for your questions."},
	{"hello", "Hello! Ask me anything about the libraries you're working with."},
	{"hey", "Hey there! What would you like to know?"},
	{"hi", "Hi! I'm ready to help with your documentation questions."},
}

// greetings are generic fallbacks when no specific phrase matched.
var greetings = []string{
	"Hi there! Ask me anything about your project's libraries.",
	"Hello! I'm listening. What would you like to know?",
	"Hey! Ready when you are.",
}

// IsConversational reports whether the query is conversational filler
// rather than a technical question. Pure string matching, no I/O.
func IsConversational(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, phrase := range phrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// Reply returns a spoken response for a conversational query. Never
// empty, never performs I/O.
func Reply(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, r := range replies {
		if strings.Contains(q, r.phrase) {
			return r.reply
		}
	}
	return greetings[rand.Intn(len(greetings))]
}
