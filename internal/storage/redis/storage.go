package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage"
)

// Standing hash fields
const (
	fieldPoints = "points"
	fieldWins   = "wins"
	fieldLosses = "losses"
	fieldDraws  = "draws"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	id, err := s.client.Incr(ctx, userSeqKey()).Result()
	if err != nil {
		return err
	}
	userID := model.UserID(id)

	// Claim both unique indexes before writing the record
	ok, err := s.client.SetNX(ctx, emailIndexKey(user.Email), id, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrUserExists
	}
	ok, err = s.client.SetNX(ctx, usernameIndexKey(user.Username), id, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		s.client.Del(ctx, emailIndexKey(user.Email))
		return model.ErrUserExists
	}

	user.ID = userID
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey(userID), data, 0).Err()
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.client.Get(ctx, emailIndexKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(id))
}

// Content operations

func (s *Storage) SaveTopic(ctx context.Context, topic *model.Topic) error {
	data, err := json.Marshal(topic)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, topicKey(topic.ID), data, 0)
	pipe.ZAdd(ctx, topicsIndexKey(), redis.Z{Score: float64(topic.ID), Member: int(topic.ID)})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetTopic(ctx context.Context, id model.TopicID) (*model.Topic, error) {
	data, err := s.client.Get(ctx, topicKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTopicNotFound
		}
		return nil, err
	}

	var topic model.Topic
	if err := json.Unmarshal(data, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (s *Storage) ListTopics(ctx context.Context) ([]*model.Topic, error) {
	ids, err := s.client.ZRange(ctx, topicsIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Topic{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, raw := range ids {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		cmds[i] = pipe.Get(ctx, topicKey(model.TopicID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	topics := make([]*model.Topic, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var topic model.Topic
		if err := json.Unmarshal(data, &topic); err != nil {
			return nil, err
		}
		topics = append(topics, &topic)
	}
	return topics, nil
}

func (s *Storage) SaveQuestions(ctx context.Context, topicID model.TopicID, questions []model.Question) error {
	stored := make([]model.Question, len(questions))
	for i, q := range questions {
		q.TopicID = topicID
		stored[i] = q
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, questionsKey(topicID), data, 0).Err()
}

func (s *Storage) GetQuestionsForTopic(ctx context.Context, topicID model.TopicID) ([]model.Question, error) {
	data, err := s.client.Get(ctx, questionsKey(topicID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Question{}, nil
		}
		return nil, err
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Result operations

// saveResultScript writes a result and both players' standings in one step.
// KEYS: result, standing of player 1, standing of player 2, leaderboard.
// ARGV: result JSON, then per player: id, points, wins, losses, draws.
// Returns 0 without writing when the result already exists.
var saveResultScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
	return 0
end
for slot = 0, 1 do
	local key = KEYS[2 + slot]
	local base = 2 + slot * 5
	redis.call('HINCRBY', key, '` + fieldPoints + `', ARGV[base + 1])
	redis.call('HINCRBY', key, '` + fieldWins + `', ARGV[base + 2])
	redis.call('HINCRBY', key, '` + fieldLosses + `', ARGV[base + 3])
	redis.call('HINCRBY', key, '` + fieldDraws + `', ARGV[base + 4])
	redis.call('ZINCRBY', KEYS[4], ARGV[base + 1], ARGV[base])
end
return 1
`)

func (s *Storage) SaveSessionResult(ctx context.Context, result *model.SessionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	players := []model.UserID{result.User1ID, result.User2ID}
	keys := []string{resultKey(result.SessionID), standingKey(players[0]), standingKey(players[1]), leaderboardKey()}
	args := []any{data}
	for slot, id := range players {
		var delta model.LeaderboardEntry
		delta.Apply(result.Outcome, slot)
		args = append(args, int64(id), delta.Points, delta.Wins, delta.Losses, delta.Draws)
	}

	written, err := saveResultScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return err
	}
	if written == 0 {
		return model.ErrResultExists
	}
	return nil
}

func (s *Storage) GetSessionResult(ctx context.Context, id model.SessionID) (*model.SessionResult, error) {
	data, err := s.client.Get(ctx, resultKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrResultNotFound
		}
		return nil, err
	}

	var result model.SessionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Storage) GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	members, err := s.client.ZRevRange(ctx, leaderboardKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*model.LeaderboardEntry{}, nil
	}

	ids := make([]model.UserID, len(members))
	pipe := s.client.Pipeline()
	standings := make([]*redis.MapStringStringCmd, len(members))
	users := make([]*redis.StringCmd, len(members))
	for i, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, err
		}
		ids[i] = model.UserID(id)
		standings[i] = pipe.HGetAll(ctx, standingKey(ids[i]))
		users[i] = pipe.Get(ctx, userKey(ids[i]))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, 0, len(members))
	for i, id := range ids {
		fields, err := standings[i].Result()
		if err != nil {
			return nil, err
		}
		entry := &model.LeaderboardEntry{
			UserID: id,
			Points: atoi(fields[fieldPoints]),
			Wins:   atoi(fields[fieldWins]),
			Losses: atoi(fields[fieldLosses]),
			Draws:  atoi(fields[fieldDraws]),
		}
		if data, err := users[i].Bytes(); err == nil {
			var user model.User
			if json.Unmarshal(data, &user) == nil {
				entry.Username = user.Username
			}
		}
		entries = append(entries, entry)
	}

	slices.SortFunc(entries, model.CompareEntries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
