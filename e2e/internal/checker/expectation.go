package checker

import (
	"fmt"
	"strings"

	"github.com/saaga0h/candidate-match/e2e/internal/observer"
	"github.com/saaga0h/candidate-match/e2e/internal/scenario"
)

const sessionPlaceholder = "{{session_id}}"

// Expand replaces the session placeholder in s
func Expand(s, sessionID string) string {
	return strings.ReplaceAll(s, sessionPlaceholder, sessionID)
}

// ExpandPayload returns a copy of payload with every string value expanded
func ExpandPayload(payload interface{}, sessionID string) interface{} {
	switch v := payload.(type) {
	case string:
		return Expand(v, sessionID)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = ExpandPayload(val, sessionID)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = ExpandPayload(val, sessionID)
		}
		return out
	default:
		return payload
	}
}

// CheckMessages passes when any captured message on the expectation's topic
// matches its payload
func CheckMessages(exp scenario.Expectation, sessionID string, messages []observer.CapturedMessage) (bool, string, interface{}) {
	topic := Expand(exp.Topic, sessionID)
	expected := ExpandPayload(exp.Payload, sessionID)

	var last interface{}
	reason := fmt.Sprintf("no messages found for topic %q", topic)
	for _, msg := range messages {
		if msg.Topic != topic {
			continue
		}
		last = msg.Payload
		ok, why := MatchesExpectation(msg.Payload, expected)
		if ok {
			return true, "", msg.Payload
		}
		reason = why
	}
	return false, reason, last
}

// CheckDocument matches a decoded API response against the expectation
func CheckDocument(exp scenario.Expectation, sessionID string, doc interface{}) (bool, string, interface{}) {
	ok, reason := MatchesExpectation(doc, ExpandPayload(exp.Payload, sessionID))
	return ok, reason, doc
}
