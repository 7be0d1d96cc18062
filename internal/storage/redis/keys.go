package redis

import (
	"fmt"
	"strings"

	"github.com/mcoot/quizarena/internal/model"
)

// Key prefix for all quiz data
const keyPrefix = "quizarena"

// userSeqKey returns the Redis key for the user id counter
func userSeqKey() string {
	return fmt.Sprintf("%s:seq:user", keyPrefix)
}

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%d", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, strings.ToLower(email))
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// topicKey returns the Redis key for a Topic
func topicKey(id model.TopicID) string {
	return fmt.Sprintf("%s:topic:%d", keyPrefix, id)
}

// topicsIndexKey returns the Redis key for the ZSET of topic ids
func topicsIndexKey() string {
	return fmt.Sprintf("%s:idx:topics", keyPrefix)
}

// questionsKey returns the Redis key for a topic's question list
func questionsKey(topicID model.TopicID) string {
	return fmt.Sprintf("%s:questions:%d", keyPrefix, topicID)
}

// resultKey returns the Redis key for a SessionResult
func resultKey(id model.SessionID) string {
	return fmt.Sprintf("%s:result:%s", keyPrefix, id)
}

// standingKey returns the Redis key for a user's win/loss/draw HASH
func standingKey(id model.UserID) string {
	return fmt.Sprintf("%s:standing:%d", keyPrefix, id)
}

// leaderboardKey returns the Redis key for the ZSET of user ids scored by points
func leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", keyPrefix)
}
