package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	sqlite *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.Ctx = context.Background()
	store, err := Open(s.Ctx, filepath.Join(s.T().TempDir(), "quiz.db"))
	s.Require().NoError(err)
	s.sqlite = store
	s.Storage = store
}

func (s *StorageSuite) TearDownTest() {
	s.Require().NoError(s.sqlite.Close())
}

func (s *StorageSuite) TestEmailLookupIsCaseInsensitive() {
	user := &model.User{Username: "alice", Email: "Alice@Example.com"}
	s.Require().NoError(s.sqlite.CreateUser(s.Ctx, user))

	got, err := s.sqlite.GetUserByEmail(s.Ctx, "ALICE@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOpenRunsMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "quiz.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.SaveTopic(ctx, &model.Topic{ID: 1, Name: "Science"}))
	require.NoError(t, store.Close())

	// Reopening must not re-run the schema or lose data
	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	topic, err := store.GetTopic(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Science", topic.Name)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;"
	assert.Equal(t, "\nCREATE TABLE a (id INTEGER);\n", extractUp(content))
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}
