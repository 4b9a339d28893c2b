package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memohai/searcharr/internal/catalog"
	dbpkg "github.com/memohai/searcharr/internal/db"
)

const maxIDAttempts = 16

// writeMu serializes every write in the process; SQLite does not take concurrent writers.
var writeMu sync.Mutex

// Store is the session database. Reads are not locked.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewStore creates a store over an already migrated database.
func NewStore(log *slog.Logger, db *sql.DB) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		db:     db,
		logger: log.With(slog.String("service", "session")),
		now:    time.Now,
		newID:  shortID,
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (s *Store) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return s.fail(op, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(op, err)
	}
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.logger.Error("session store failed", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, err)
}

// GenerateConversationID returns a short id not used by any stored conversation.
func (s *Store) GenerateConversationID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM conversations WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return "", s.fail("generate conversation id", err)
		}
		if exists == 0 {
			return id, nil
		}
		s.logger.Warn("conversation id collision, regenerating", slog.String("cid", id))
	}
	return "", s.fail("generate conversation id", errors.New("no free id after retries"))
}

// CreateConversation stores a conversation, replacing any record with the same id.
func (s *Store) CreateConversation(ctx context.Context, c Conversation) error {
	if c.ID == "" {
		return errors.New("conversation id is required")
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	results := c.Results
	if len(results) == 0 {
		results = json.RawMessage("[]")
	}
	return s.write(ctx, "create conversation", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO conversations (id, username, kind, results, created_at) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Username, c.Kind.String(), string(results), created.Unix())
		return err
	})
}

// GetConversation loads a conversation or returns ErrConversationNotFound.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, error) {
	var (
		c       Conversation
		kind    string
		results string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, kind, results, created_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Username, &kind, &results, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return Conversation{}, s.fail("get conversation", err)
	}
	c.Kind, err = catalog.ParseKind(kind)
	if err != nil {
		return Conversation{}, s.fail("get conversation", err)
	}
	c.Results = json.RawMessage(results)
	c.CreatedAt = dbpkg.UnixTime(created)
	return c, nil
}

// ReplaceResults overwrites the result set of a conversation.
func (s *Store) ReplaceResults(ctx context.Context, id string, results json.RawMessage) error {
	return s.write(ctx, "replace results", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE conversations SET results = ? WHERE id = ?`, string(results), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
}

// DeleteConversation removes a conversation together with its add-data.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return s.write(ctx, "delete conversation", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM add_data WHERE cid = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
		return err
	})
}

// DeleteConversationsBefore removes conversations created before t and returns how many went.
func (s *Store) DeleteConversationsBefore(ctx context.Context, t time.Time) (int64, error) {
	var removed int64
	err := s.write(ctx, "delete stale conversations", func(tx *sql.Tx) error {
		cutoff := t.Unix()
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM add_data WHERE cid IN (SELECT id FROM conversations WHERE created_at < ?)`, cutoff); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE created_at < ?`, cutoff)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}

// CountConversations reports how many conversations are stored.
func (s *Store) CountConversations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM conversations`).Scan(&n); err != nil {
		return 0, s.fail("count conversations", err)
	}
	return n, nil
}

// GetAddData returns every add-data value of a conversation.
func (s *Store) GetAddData(ctx context.Context, cid string) (AddData, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM add_data WHERE cid = ?`, cid)
	if err != nil {
		return nil, s.fail("get add data", err)
	}
	defer rows.Close()
	data := AddData{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, s.fail("get add data", err)
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("get add data", err)
	}
	return data, nil
}

// SetAddData stores one add-data value, replacing the previous one.
func (s *Store) SetAddData(ctx context.Context, cid, key, value string) error {
	return s.write(ctx, "set add data", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO add_data (cid, key, value) VALUES (?, ?, ?)`, cid, key, value)
		return err
	})
}

// AppendTag records a tag press: value is stored under tt and its ids are merged into the
// accumulated t list. Both happen in one write so concurrent presses keep every tag.
func (s *Store) AppendTag(ctx context.Context, cid, value string) error {
	return s.write(ctx, "append tag", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO add_data (cid, key, value) VALUES (?, ?, ?)`, cid, KeyTag, value); err != nil {
			return err
		}
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM add_data WHERE cid = ? AND key = ?`, cid, KeyTags).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		merged := JoinTagIDs(append(ParseTagIDs(current), ParseTagIDs(value)...))
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO add_data (cid, key, value) VALUES (?, ?, ?)`, cid, KeyTags, merged)
		return err
	})
}

// AddUser stores a user, replacing any record with the same id.
func (s *Store) AddUser(ctx context.Context, u User) error {
	return s.write(ctx, "add user", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO users (id, username, admin) VALUES (?, ?, ?)`, u.ID, u.Username, u.Admin)
		return err
	})
}

// GetUser loads a user or returns ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, username, admin FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Admin)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, s.fail("get user", err)
	}
	return u, nil
}

// ListUsers returns users ordered by id, optionally only admins.
func (s *Store) ListUsers(ctx context.Context, adminOnly bool) ([]User, error) {
	query := `SELECT id, username, admin FROM users ORDER BY id`
	if adminOnly {
		query = `SELECT id, username, admin FROM users WHERE admin != '' ORDER BY id`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.fail("list users", err)
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Admin); err != nil {
			return nil, s.fail("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list users", err)
	}
	return users, nil
}

// RemoveUser deletes a user record.
func (s *Store) RemoveUser(ctx context.Context, id int64) error {
	return s.write(ctx, "remove user", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		return err
	})
}

// SetAdmin sets or clears the admin flag of a user.
func (s *Store) SetAdmin(ctx context.Context, id int64, admin bool) error {
	value := ""
	if admin {
		value = AdminValue
	}
	return s.write(ctx, "set admin", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET admin = ? WHERE id = ?`, value, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
