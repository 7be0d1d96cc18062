package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage/memory"
	"github.com/mcoot/quizarena/internal/testutil"
)

const seedYAML = `
topics:
  - id: 1
    name: Science
    description: Atoms and stars
    questions:
      - id: 1
        text: What is H2O?
        options: [Water, Salt]
        answer: Water
      - id: 2
        text: Closest star to Earth?
        options: [Sirius, The Sun]
        answer: The Sun
  - id: 2
    name: Empty
`

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage, testutil.Logger(s.T()))
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestLoadAndFetch() {
	s.Require().NoError(s.service.Load(s.ctx, []byte(seedYAML)))

	content, err := s.service.FetchContent(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Science", content.Topic.Name)
	s.Equal("Atoms and stars", content.Topic.Description)
	s.Require().Len(content.Questions, 2)
	s.Equal("What is H2O?", content.Questions[0].Text)
	s.Equal([]string{"Water", "Salt"}, content.Questions[0].Options)
	s.Equal(model.TopicID(1), content.Questions[1].TopicID)
}

func (s *ServiceSuite) TestFetchUnknownTopic() {
	_, err := s.service.FetchContent(s.ctx, 9)
	s.ErrorIs(err, model.ErrContentNotFound)
}

func (s *ServiceSuite) TestFetchTopicWithoutQuestions() {
	s.Require().NoError(s.service.Load(s.ctx, []byte(seedYAML)))

	_, err := s.service.FetchContent(s.ctx, 2)
	s.ErrorIs(err, model.ErrContentNotFound)
}

func (s *ServiceSuite) TestTopics() {
	s.Require().NoError(s.service.Load(s.ctx, []byte(seedYAML)))

	topics, err := s.service.Topics(s.ctx)
	s.Require().NoError(err)
	s.Len(topics, 2)
}

func (s *ServiceSuite) TestLoadRejectsInvalidTopicID() {
	err := s.service.Load(s.ctx, []byte("topics:\n  - id: 0\n    name: Bad\n"))
	s.Error(err)
}

func (s *ServiceSuite) TestLoadRejectsMalformedYAML() {
	err := s.service.Load(s.ctx, []byte("topics: [unterminated"))
	s.Error(err)
}

func (s *ServiceSuite) TestLoadFromFile() {
	path := filepath.Join(s.T().TempDir(), "topics.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(seedYAML), 0o600))

	s.Require().NoError(s.service.LoadFromFile(s.ctx, path))

	_, err := s.service.FetchContent(s.ctx, 1)
	s.NoError(err)
}

func (s *ServiceSuite) TestLoadFromMissingFile() {
	err := s.service.LoadFromFile(s.ctx, filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.ErrorIs(err, os.ErrNotExist)
}

func (s *ServiceSuite) TestBundledSeedHasEveryTopic() {
	s.Require().NoError(s.service.LoadFromFile(s.ctx, filepath.Join("..", "..", "..", "data", "topics.yaml")))

	for id := model.TopicID(1); id <= 5; id++ {
		content, err := s.service.FetchContent(s.ctx, id)
		s.Require().NoError(err, "topic %d", id)
		s.NotEmpty(content.Questions)
	}
}
