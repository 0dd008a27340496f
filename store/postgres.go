package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/digitalscyther/ai-cv-creator/interview"
)

const conversationCacheSize = 1024

// PostgresStore persists conversations in a single table, with an LRU read
// cache in front of the database. Cache entries hold the marshalled row, so
// hits take the same copy-on-read path as the memory store.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[int64, []byte]
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	cache, err := lru.New[int64, []byte](conversationCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db, cache: cache}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS conversations (
				id           BIGSERIAL PRIMARY KEY,
				profession   TEXT,
				questions    JSONB,
				resume       TEXT,
				artifact     TEXT,
				transcript   JSONB,
				tokens_spent BIGINT NOT NULL DEFAULT 0
			)`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Create(ctx context.Context) (int64, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, fmt.Errorf("ensure schema: %w", err)
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO conversations (tokens_spent) VALUES (0) RETURNING id`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Load(ctx context.Context, id int64) (*interview.Conversation, error) {
	if raw, ok := s.cache.Get(id); ok {
		var conv interview.Conversation
		if err := sonic.Unmarshal(raw, &conv); err == nil {
			return &conv, nil
		}
		s.cache.Remove(id)
	}

	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var (
		conv       interview.Conversation
		profession sql.NullString
		questions  []byte
		resume     sql.NullString
		artifact   sql.NullString
		transcript []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profession, questions, resume, artifact, transcript, tokens_spent
		FROM conversations WHERE id = $1`, id).
		Scan(&conv.ID, &profession, &questions, &resume, &artifact, &transcript, &conv.TokensSpent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %d: %w", id, err)
	}

	if profession.Valid {
		conv.Profession = &profession.String
	}
	if resume.Valid {
		conv.Resume = &resume.String
	}
	if artifact.Valid {
		conv.Artifact = &artifact.String
	}
	if len(questions) > 0 {
		if err := sonic.Unmarshal(questions, &conv.Questions); err != nil {
			return nil, fmt.Errorf("decode questions for %d: %w", id, err)
		}
	}
	if len(transcript) > 0 {
		if err := sonic.Unmarshal(transcript, &conv.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript for %d: %w", id, err)
		}
	}

	if raw, err := sonic.Marshal(&conv); err == nil {
		s.cache.Add(id, raw)
	}
	return &conv, nil
}

func (s *PostgresStore) Save(ctx context.Context, conv *interview.Conversation) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	var questions, transcript []byte
	var err error
	if conv.Questions != nil {
		if questions, err = sonic.Marshal(conv.Questions); err != nil {
			return fmt.Errorf("encode questions: %w", err)
		}
	}
	if conv.Transcript != nil {
		if transcript, err = sonic.Marshal(conv.Transcript); err != nil {
			return fmt.Errorf("encode transcript: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, profession, questions, resume, artifact, transcript, tokens_spent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			profession   = EXCLUDED.profession,
			questions    = EXCLUDED.questions,
			resume       = EXCLUDED.resume,
			artifact     = EXCLUDED.artifact,
			transcript   = EXCLUDED.transcript,
			tokens_spent = EXCLUDED.tokens_spent`,
		conv.ID, conv.Profession, nullableJSON(questions), conv.Resume, conv.Artifact,
		nullableJSON(transcript), conv.TokensSpent)
	if err != nil {
		return fmt.Errorf("save conversation %d: %w", conv.ID, err)
	}

	if raw, err := sonic.Marshal(conv); err == nil {
		s.cache.Add(conv.ID, raw)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
