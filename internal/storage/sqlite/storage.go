// Package sqlite provides a SQLite-backed implementation of the storage interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/quizarena/internal/model"
	"github.com/mcoot/quizarena/internal/storage"
	"github.com/mcoot/quizarena/internal/storage/sqlite/migrations"
)

// Storage persists users, content and results in a SQLite file
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies embedded migrations
func Open(ctx context.Context, path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.Username, strings.ToLower(user.Email), user.PasswordHash, toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	user.ID = model.UserID(id)
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, int64(id))
	return scanUser(row)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email))
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		user      model.User
		createdAt int64
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

// Content operations

func (s *Storage) SaveTopic(ctx context.Context, topic *model.Topic) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (id, name, description) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		int(topic.ID), topic.Name, topic.Description,
	)
	return err
}

func (s *Storage) GetTopic(ctx context.Context, id model.TopicID) (*model.Topic, error) {
	var topic model.Topic
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM topics WHERE id = ?`, int(id),
	).Scan(&topic.ID, &topic.Name, &topic.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrTopicNotFound
		}
		return nil, err
	}
	return &topic, nil
}

func (s *Storage) ListTopics(ctx context.Context) ([]*model.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM topics ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := []*model.Topic{}
	for rows.Next() {
		var topic model.Topic
		if err := rows.Scan(&topic.ID, &topic.Name, &topic.Description); err != nil {
			return nil, err
		}
		topics = append(topics, &topic)
	}
	return topics, rows.Err()
}

func (s *Storage) SaveQuestions(ctx context.Context, topicID model.TopicID, questions []model.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE topic_id = ?`, int(topicID)); err != nil {
		return err
	}
	for pos, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (topic_id, position, question_id, text, options, answer) VALUES (?, ?, ?, ?, ?, ?)`,
			int(topicID), pos, q.ID, q.Text, string(options), q.Answer,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) GetQuestionsForTopic(ctx context.Context, topicID model.TopicID) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, text, options, answer FROM questions WHERE topic_id = ? ORDER BY position`,
		int(topicID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var (
			q       model.Question
			options string
		)
		if err := rows.Scan(&q.ID, &q.Text, &options, &q.Answer); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		q.TopicID = topicID
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Result operations

func (s *Storage) SaveSessionResult(ctx context.Context, result *model.SessionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_results (
		   session_id, user1_id, user2_id, user1_score, user2_score, outcome, reason, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(result.SessionID),
		int64(result.User1ID),
		int64(result.User2ID),
		result.User1Score,
		result.User2Score,
		int(result.Outcome),
		string(result.Reason),
		toMillis(result.FinishedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return model.ErrResultExists
		}
		return fmt.Errorf("insert result: %w", err)
	}

	for slot, id := range []model.UserID{result.User1ID, result.User2ID} {
		var delta model.LeaderboardEntry
		delta.Apply(result.Outcome, slot)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO standings (user_id, points, wins, losses, draws) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
			   points = points + excluded.points,
			   wins = wins + excluded.wins,
			   losses = losses + excluded.losses,
			   draws = draws + excluded.draws`,
			int64(id), delta.Points, delta.Wins, delta.Losses, delta.Draws,
		); err != nil {
			return fmt.Errorf("update standings: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Storage) GetSessionResult(ctx context.Context, id model.SessionID) (*model.SessionResult, error) {
	var (
		result     model.SessionResult
		reason     string
		finishedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, user1_id, user2_id, user1_score, user2_score, outcome, reason, finished_at
		 FROM session_results WHERE session_id = ?`, string(id),
	).Scan(
		&result.SessionID,
		&result.User1ID,
		&result.User2ID,
		&result.User1Score,
		&result.User2Score,
		&result.Outcome,
		&reason,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrResultNotFound
		}
		return nil, err
	}
	result.Reason = model.FinishReason(reason)
	result.FinishedAt = fromMillis(finishedAt)
	return &result, nil
}

func (s *Storage) GetLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.user_id, COALESCE(u.username, ''), s.points, s.wins, s.losses, s.draws
		 FROM standings s LEFT JOIN users u ON u.id = s.user_id
		 ORDER BY s.points DESC, s.wins DESC, s.user_id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.Wins, &e.Losses, &e.Draws); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
