package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/quizarena/internal/dependencies/mocks"
	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage/memory"
	"github.com/mcoot/quizarena/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Secret = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	s.service = New(s.storage, s.clock, cfg, testutil.Logger(s.T()))
	s.ctx = context.Background()
}

// Register tests

func (s *ServiceSuite) TestRegisterSucceeds() {
	user, err := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	s.Require().NoError(err)

	s.True(user.ID.Valid())
	s.Equal("alice", user.Username)
}

func (s *ServiceSuite) TestRegisterHashesPassword() {
	user, _ := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")

	stored, err := s.storage.GetUser(s.ctx, user.ID)
	s.Require().NoError(err)
	s.NotEqual("password123", stored.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))
}

func (s *ServiceSuite) TestRegisterRequiresAllFields() {
	_, err := s.service.Register(s.ctx, "alice", " ", "password123")
	s.ErrorIs(err, ErrMissingFields)

	_, err = s.service.Register(s.ctx, "alice", "alice@example.com", "")
	s.ErrorIs(err, ErrMissingFields)
}

func (s *ServiceSuite) TestRegisterDuplicateEmail() {
	_, _ = s.service.Register(s.ctx, "alice", "alice@example.com", "password123")

	_, err := s.service.Register(s.ctx, "alice2", "alice@example.com", "other")
	s.ErrorIs(err, model.ErrUserExists)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	user, _ := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")

	session, err := s.service.Login(s.ctx, "alice@example.com", "password123")
	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal(user.ID, session.User.ID)
	s.Equal("alice@example.com", session.Email)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	_, _ = s.service.Register(s.ctx, "alice", "alice@example.com", "password123")

	_, err := s.service.Login(s.ctx, "alice@example.com", "wrong")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownEmail() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// ValidateToken tests

func (s *ServiceSuite) TestValidateTokenRoundTrip() {
	user, _ := s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	session, _ := s.service.Login(s.ctx, "alice@example.com", "password123")

	id, err := s.service.ValidateToken(session.Token)
	s.Require().NoError(err)
	s.Equal(user.ID, id.ID)
	s.Equal("alice", id.Username)
}

func (s *ServiceSuite) TestValidateTokenExpires() {
	_, _ = s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	session, _ := s.service.Login(s.ctx, "alice@example.com", "password123")

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateToken(session.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateTokenRejectsOtherSecret() {
	other := New(s.storage, s.clock, Config{Secret: "another"}, testutil.Logger(s.T()))
	_, _ = s.service.Register(s.ctx, "alice", "alice@example.com", "password123")
	session, _ := s.service.Login(s.ctx, "alice@example.com", "password123")

	_, err := other.ValidateToken(session.Token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateTokenRejectsGarbage() {
	_, err := s.service.ValidateToken("")
	s.ErrorIs(err, ErrInvalidToken)

	_, err = s.service.ValidateToken("not.a.token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateTokenRejectsNonPositiveID() {
	claims := tokenClaims{
		ID:       0,
		Username: "ghost",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.ErrorIs(err, ErrInvalidToken)
}
