// Package session persists conversations, authorized users and the add-data accumulator.
package session

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/memohai/searcharr/internal/catalog"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Add-data keys.
const (
	KeyPath       = "p"
	KeyQuality    = "q"
	KeyMetadata   = "m"
	KeyMonitor    = "m"
	KeyTags       = "t"
	KeyTagsDone   = "td"
	KeyTag        = "tt"
	KeySeriesType = "st"
	// KeyPathResolved marks that a numeric root folder value went through id lookup, so a
	// numeric value that matched no folder stays a literal path from then on.
	KeyPathResolved = "pr"
)

// AdminValue is the stored admin flag of administrators.
const AdminValue = "True"

const tagSeparator = ","

// Conversation is one search or users listing, addressed by its short id in every callback.
type Conversation struct {
	ID        string
	Username  string
	Kind      catalog.Kind
	Results   json.RawMessage
	CreatedAt time.Time
}

// Items decodes the results of a catalog conversation.
func (c Conversation) Items() ([]catalog.Item, error) {
	var items []catalog.Item
	if len(c.Results) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(c.Results, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Users decodes the results of a users conversation.
func (c Conversation) Users() ([]User, error) {
	var users []User
	if len(c.Results) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(c.Results, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AuthLevel is what a caller is allowed to do.
type AuthLevel int

const (
	AuthNone AuthLevel = iota
	AuthUser
	AuthAdmin
)

func (a AuthLevel) String() string {
	switch a {
	case AuthUser:
		return "user"
	case AuthAdmin:
		return "admin"
	default:
		return "none"
	}
}

// User is an authenticated chat user. Admin holds "" for regular users.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Admin    string `json:"admin"`
}

// IsAdmin reports whether the stored admin flag is set.
func (u User) IsAdmin() bool {
	return strings.TrimSpace(u.Admin) != ""
}

// Level returns the auth level the stored record grants.
func (u User) Level() AuthLevel {
	if u.IsAdmin() {
		return AuthAdmin
	}
	return AuthUser
}

// AddData is the accumulated wizard state of one conversation. A present key means the
// step it belongs to is satisfied.
type AddData map[string]string

func (a AddData) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a AddData) Get(key string) string {
	return a[key]
}

// Int returns the value under key parsed as an integer.
func (a AddData) Int(key string) (int64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TagIDs returns the comma-joined tag ids under key t.
func (a AddData) TagIDs() []int64 {
	return ParseTagIDs(a[KeyTags])
}

// ParseTagIDs parses a comma-joined id list, skipping blanks and non-numbers.
func ParseTagIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, tagSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// JoinTagIDs joins ids with commas, dropping duplicates and keeping first-seen order.
func JoinTagIDs(ids []int64) string {
	seen := make(map[int64]struct{}, len(ids))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, tagSeparator)
}
