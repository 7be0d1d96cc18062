package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	nextUserID    model.UserID
	users         map[model.UserID]*model.User
	emailIndex    map[string]model.UserID
	usernameIndex map[string]model.UserID
	topics        map[model.TopicID]*model.Topic
	questions     map[model.TopicID][]model.Question
	results       map[model.SessionID]*model.SessionResult
	standings     map[model.UserID]*model.LeaderboardEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]*model.User),
		emailIndex:    make(map[string]model.UserID),
		usernameIndex: make(map[string]model.UserID),
		topics:        make(map[model.TopicID]*model.Topic),
		questions:     make(map[model.TopicID][]model.Question),
		results:       make(map[model.SessionID]*model.SessionResult),
		standings:     make(map[model.UserID]*model.LeaderboardEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.emailIndex[email]; ok {
		return model.ErrUserExists
	}
	if _, ok := s.usernameIndex[user.Username]; ok {
		return model.ErrUserExists
	}

	s.nextUserID++
	user.ID = s.nextUserID
	stored := *user
	s.users[user.ID] = &stored
	s.emailIndex[email] = user.ID
	s.usernameIndex[user.Username] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// Content operations

func (s *Storage) SaveTopic(ctx context.Context, topic *model.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *topic
	s.topics[topic.ID] = &cp
	return nil
}

func (s *Storage) GetTopic(ctx context.Context, id model.TopicID) (*model.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topic, ok := s.topics[id]
	if !ok {
		return nil, model.ErrTopicNotFound
	}
	cp := *topic
	return &cp, nil
}

func (s *Storage) ListTopics(ctx context.Context) ([]*model.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topics := make([]*model.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		cp := *t
		topics = append(topics, &cp)
	}
	slices.SortFunc(topics, func(a, b *model.Topic) int { return cmp.Compare(a.ID, b.ID) })
	return topics, nil
}

func (s *Storage) SaveQuestions(ctx context.Context, topicID model.TopicID, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]model.Question, len(questions))
	for i, q := range questions {
		q.TopicID = topicID
		q.Options = slices.Clone(q.Options)
		stored[i] = q
	}
	s.questions[topicID] = stored
	return nil
}

func (s *Storage) GetQuestionsForTopic(ctx context.Context, topicID model.TopicID) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]model.Question, len(s.questions[topicID]))
	for i, q := range s.questions[topicID] {
		q.Options = slices.Clone(q.Options)
		questions[i] = q
	}
	return questions, nil
}

// Result operations

func (s *Storage) SaveSessionResult(ctx context.Context, result *model.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[result.SessionID]; ok {
		return model.ErrResultExists
	}
	cp := *result
	s.results[result.SessionID] = &cp

	for slot, id := range []model.UserID{result.User1ID, result.User2ID} {
		entry, ok := s.standings[id]
		if !ok {
			entry = &model.LeaderboardEntry{UserID: id}
			s.standings[id] = entry
		}
		entry.Apply(result.Outcome, slot)
	}
	return nil
}

func (s *Storage) GetSessionResult(ctx context.Context, id model.SessionID) (*model.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return nil, model.ErrResultNotFound
	}
	cp := *result
	return &cp, nil
}

func (s *Storage) GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*model.LeaderboardEntry, 0, len(s.standings))
	for id, standing := range s.standings {
		cp := *standing
		if user, ok := s.users[id]; ok {
			cp.Username = user.Username
		}
		entries = append(entries, &cp)
	}
	slices.SortFunc(entries, model.CompareEntries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
