package chat

import "strings"

// Stage encodes which phase of the guided conversation flow the assistant is
// in. The machine cycles indefinitely; StageGreet is both the initial state
// and the restart target.
type Stage int

const (
	StageGreet     Stage = 1
	StageGather    Stage = 2
	StageSolutions Stage = 3
	StageOffer     Stage = 4
	StageClosure   Stage = 5
)

// TransitionRule advances From to Next when the user's message contains any
// of Keywords (case-insensitive). An empty keyword set matches any message.
type TransitionRule struct {
	From     Stage
	Keywords []string
	Next     Stage
}

var escalationKeywords = []string{
	"schedule", "consultation", "meeting", "discuss further",
	"not quite", "need more", "speak to", "talk to",
}

var restartKeywords = []string{
	"new question", "something else", "another topic", "start over",
}

// DefaultRules is the transition table used in production. Rules are checked
// in order; the first match for the current stage wins, and a stage with no
// matching rule holds.
var DefaultRules = []TransitionRule{
	{From: StageGreet, Next: StageGather},
	{From: StageGather, Next: StageSolutions},
	{From: StageSolutions, Keywords: escalationKeywords, Next: StageOffer},
	{From: StageOffer, Keywords: restartKeywords, Next: StageGreet},
	{From: StageOffer, Next: StageClosure},
	{From: StageClosure, Keywords: restartKeywords, Next: StageGreet},
}

// StageMachine evaluates transition rules over user messages.
type StageMachine struct {
	rules []TransitionRule
}

// NewStageMachine creates a machine over the given rule table, defaulting to
// DefaultRules.
func NewStageMachine(rules []TransitionRule) *StageMachine {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &StageMachine{rules: rules}
}

// Next computes the stage that the user's message advances the conversation
// to. This value is what goes on the wire with the request; the post-reply
// force transition is evaluated separately via ReplyForcesOffer.
func (m *StageMachine) Next(current Stage, userMessage string) Stage {
	lower := strings.ToLower(userMessage)
	for _, rule := range m.rules {
		if rule.From != current {
			continue
		}
		if len(rule.Keywords) == 0 || containsAny(lower, rule.Keywords) {
			return rule.Next
		}
	}
	return current
}

// ReplyForcesOffer reports whether a fully received assistant reply forces
// the stage to StageOffer for the following turn. Only applies while the
// conversation is in StageSolutions.
func ReplyForcesOffer(reply string) bool {
	lower := strings.ToLower(reply)
	return strings.Contains(lower, "schedule") && strings.Contains(lower, "consultation")
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
