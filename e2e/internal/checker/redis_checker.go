package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saaga0h/candidate-match/e2e/internal/scenario"
	"github.com/saaga0h/candidate-match/pkg/redis"
)

// CheckRedisSession matches the stored session document against the expectation
func CheckRedisSession(ctx context.Context, client redis.Client, exp scenario.Expectation, sessionID string) (bool, string, interface{}) {
	key := redis.SessionKey(sessionID)

	raw, err := client.Get(ctx, key)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return false, fmt.Sprintf("key %q not found in Redis", key), nil
	}
	if err != nil {
		return false, fmt.Sprintf("Redis error: %v", err), nil
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return false, fmt.Sprintf("session %q is not valid JSON: %v", key, err), raw
	}

	ok, reason := MatchesExpectation(doc, ExpandPayload(exp.Payload, sessionID))
	return ok, reason, doc
}
