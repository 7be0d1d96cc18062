// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage"
)

// Suite exercises the storage.Storage contract. Backends embed it and set
// Storage in their SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var createdAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *Suite) createUser(username string) *model.User {
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash-" + username,
		CreatedAt:    createdAt,
	}
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))
	return user
}

func (s *Suite) result(id string, u1, u2 model.UserID, score1, score2 int) *model.SessionResult {
	return &model.SessionResult{
		SessionID:  model.SessionID(id),
		User1ID:    u1,
		User2ID:    u2,
		User1Score: score1,
		User2Score: score2,
		Outcome:    model.DetermineOutcome(score1, score2),
		Reason:     model.FinishBothSubmitted,
		FinishedAt: createdAt,
	}
}

// User tests

func (s *Suite) TestCreateUserAssignsIDs() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")

	s.True(alice.ID.Valid())
	s.True(bob.ID.Valid())
	s.NotEqual(alice.ID, bob.ID)
}

func (s *Suite) TestGetUser() {
	alice := s.createUser("alice")

	got, err := s.Storage.GetUser(s.Ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal("alice@example.com", got.Email)
	s.Equal("hash-alice", got.PasswordHash)
	s.True(createdAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetUserByEmail() {
	alice := s.createUser("alice")

	got, err := s.Storage.GetUserByEmail(s.Ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal(alice.ID, got.ID)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, 999)
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.Storage.GetUserByEmail(s.Ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestCreateUserDuplicateEmail() {
	s.createUser("alice")

	err := s.Storage.CreateUser(s.Ctx, &model.User{Username: "alice2", Email: "alice@example.com"})
	s.ErrorIs(err, model.ErrUserExists)
}

func (s *Suite) TestCreateUserDuplicateUsername() {
	s.createUser("alice")

	err := s.Storage.CreateUser(s.Ctx, &model.User{Username: "alice", Email: "other@example.com"})
	s.ErrorIs(err, model.ErrUserExists)
}

// Content tests

func (s *Suite) TestSaveAndGetTopic() {
	s.Require().NoError(s.Storage.SaveTopic(s.Ctx, &model.Topic{ID: 1, Name: "Science", Description: "Atoms"}))

	topic, err := s.Storage.GetTopic(s.Ctx, 1)
	s.Require().NoError(err)
	s.Equal("Science", topic.Name)
	s.Equal("Atoms", topic.Description)
}

func (s *Suite) TestGetTopicNotFound() {
	_, err := s.Storage.GetTopic(s.Ctx, 42)
	s.ErrorIs(err, model.ErrTopicNotFound)
}

func (s *Suite) TestListTopicsOrdered() {
	s.Require().NoError(s.Storage.SaveTopic(s.Ctx, &model.Topic{ID: 2, Name: "History"}))
	s.Require().NoError(s.Storage.SaveTopic(s.Ctx, &model.Topic{ID: 1, Name: "Science"}))

	topics, err := s.Storage.ListTopics(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(topics, 2)
	s.Equal(model.TopicID(1), topics[0].ID)
	s.Equal(model.TopicID(2), topics[1].ID)
}

func (s *Suite) TestSaveQuestionsReplaces() {
	first := []model.Question{
		{ID: 1, Text: "Old?", Options: []string{"a", "b"}, Answer: "a"},
	}
	second := []model.Question{
		{ID: 1, Text: "H2O is?", Options: []string{"water", "salt"}, Answer: "water"},
		{ID: 2, Text: "Fe is?", Options: []string{"iron", "gold"}, Answer: "iron"},
	}
	s.Require().NoError(s.Storage.SaveQuestions(s.Ctx, 1, first))
	s.Require().NoError(s.Storage.SaveQuestions(s.Ctx, 1, second))

	questions, err := s.Storage.GetQuestionsForTopic(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(questions, 2)
	s.Equal("H2O is?", questions[0].Text)
	s.Equal(model.TopicID(1), questions[0].TopicID)
	s.Equal([]string{"iron", "gold"}, questions[1].Options)
}

func (s *Suite) TestGetQuestionsForUnknownTopicIsEmpty() {
	questions, err := s.Storage.GetQuestionsForTopic(s.Ctx, 7)
	s.Require().NoError(err)
	s.Empty(questions)
}

// Result tests

func (s *Suite) TestSaveAndGetSessionResult() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s1", alice.ID, bob.ID, 3, 1)))

	got, err := s.Storage.GetSessionResult(s.Ctx, "s1")
	s.Require().NoError(err)
	s.Equal(alice.ID, got.User1ID)
	s.Equal(bob.ID, got.User2ID)
	s.Equal(3, got.User1Score)
	s.Equal(1, got.User2Score)
	s.Equal(model.OutcomePlayer1Win, got.Outcome)
	s.Equal(model.FinishBothSubmitted, got.Reason)
	s.True(createdAt.Equal(got.FinishedAt))
}

func (s *Suite) TestGetSessionResultNotFound() {
	_, err := s.Storage.GetSessionResult(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrResultNotFound)
}

func (s *Suite) TestSaveSessionResultOnlyOnce() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s1", alice.ID, bob.ID, 3, 1)))

	err := s.Storage.SaveSessionResult(s.Ctx, s.result("s1", alice.ID, bob.ID, 0, 5))
	s.ErrorIs(err, model.ErrResultExists)

	board, err := s.Storage.GetLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(board, 2)
	s.Equal(1, board[0].Played())
	s.Equal(1, board[1].Played())
}

func (s *Suite) TestLeaderboardStandings() {
	alice, bob, carol := s.createUser("alice"), s.createUser("bob"), s.createUser("carol")

	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s1", alice.ID, bob.ID, 3, 1)))
	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s2", bob.ID, carol.ID, 2, 2)))
	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s3", carol.ID, alice.ID, 0, 4)))

	board, err := s.Storage.GetLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(board, 3)

	s.Equal("alice", board[0].Username)
	s.Equal(6, board[0].Points)
	s.Equal(2, board[0].Wins)

	// bob and carol both have a draw and a loss; ties broken by user id
	s.Equal("bob", board[1].Username)
	s.Equal(1, board[1].Points)
	s.Equal(1, board[1].Draws)
	s.Equal(1, board[1].Losses)
	s.Equal("carol", board[2].Username)
	s.Equal(1, board[2].Points)
}

func (s *Suite) TestLeaderboardLimit() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s1", alice.ID, bob.ID, 0, 1)))

	board, err := s.Storage.GetLeaderboard(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(board, 1)
	s.Equal(bob.ID, board[0].UserID)
}

func (s *Suite) TestLeaderboardTiesOrderedByUserID() {
	alice, bob := s.createUser("alice"), s.createUser("bob")
	s.Require().NoError(s.Storage.SaveSessionResult(s.Ctx, s.result("s1", bob.ID, alice.ID, 2, 2)))

	for range 3 {
		board, err := s.Storage.GetLeaderboard(s.Ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(board, 2)
		s.Equal(alice.ID, board[0].UserID)
		s.Equal(bob.ID, board[1].UserID)
	}

	board, err := s.Storage.GetLeaderboard(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(board, 1)
	s.Equal(alice.ID, board[0].UserID)
}

func (s *Suite) TestLeaderboardEmpty() {
	board, err := s.Storage.GetLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Empty(board)
}
