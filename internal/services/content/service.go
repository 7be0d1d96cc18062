package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage"
)

// Service serves topic and question content from storage
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new content Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "content")),
	}
}

// seedFile is the on-disk layout of a content seed
type seedFile struct {
	Topics []seedTopic `yaml:"topics"`
}

type seedTopic struct {
	model.Topic `yaml:",inline"`
	Questions   []model.Question `yaml:"questions"`
}

// FetchContent returns a topic and its questions.
// Returns model.ErrContentNotFound if either is missing.
func (s *Service) FetchContent(ctx context.Context, topicID model.TopicID) (*model.Content, error) {
	topic, err := s.storage.GetTopic(ctx, topicID)
	if err != nil {
		if errors.Is(err, model.ErrTopicNotFound) {
			return nil, fmt.Errorf("topic %d: %w", topicID, model.ErrContentNotFound)
		}
		return nil, err
	}

	questions, err := s.storage.GetQuestionsForTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("topic %d has no questions: %w", topicID, model.ErrContentNotFound)
	}

	return &model.Content{Topic: *topic, Questions: questions}, nil
}

// Topics lists every known topic
func (s *Service) Topics(ctx context.Context) ([]*model.Topic, error) {
	return s.storage.ListTopics(ctx)
}

// LoadFromFile seeds storage from a YAML file, replacing the questions of every topic it names
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Load(ctx, data)
}

// Load seeds storage from YAML content
func (s *Service) Load(ctx context.Context, data []byte) error {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse content seed: %w", err)
	}

	questions := 0
	for _, t := range seed.Topics {
		if t.ID <= 0 {
			return fmt.Errorf("topic %q: id must be positive", t.Name)
		}
		if err := s.storage.SaveTopic(ctx, &t.Topic); err != nil {
			return err
		}
		if err := s.storage.SaveQuestions(ctx, t.ID, t.Questions); err != nil {
			return err
		}
		questions += len(t.Questions)
	}

	s.logger.Info("content loaded",
		slog.Int("topics", len(seed.Topics)),
		slog.Int("questions", questions))
	return nil
}

// ServiceInterface is the content API used by handlers and the matchmaker
type ServiceInterface interface {
	FetchContent(ctx context.Context, topicID model.TopicID) (*model.Content, error)
	Topics(ctx context.Context) ([]*model.Topic, error)
	LoadFromFile(ctx context.Context, path string) error
	Load(ctx context.Context, data []byte) error
}

var _ ServiceInterface = (*Service)(nil)
