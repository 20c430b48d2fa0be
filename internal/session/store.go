package session

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sovereign-agent/core/internal/core"
)

// maxMessagesBeforeSummary caps the live message tail kept per conversation
// record before older turns are folded into summary text.
const maxMessagesBeforeSummary = 20

// summaryTailKept is how many of the most recent messages survive verbatim
// after a summarization pass; the older ones are condensed.
const summaryTailKept = maxMessagesBeforeSummary / 2

// ConversationRecord is the durable, on-disk form of one conversation: the
// live message tail plus a running text summary of everything folded out of
// it. It is distinct from the in-turn history digest (prompt.SummarizeHistory)
// and from the per-call context-window reduction (reduceMessages/llm
// truncation) — this is the persisted, cross-process conversation memory.
type ConversationRecord struct {
	SessionID string            `json:"session_id"`
	Messages  []core.Message    `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Summary   string            `json:"summary"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ConversationStore persists conversations as JSON files sharded by the
// first two hex characters of the MD5 hash of the session id, mirroring the
// original store's directory layout: <dir>/<shard>/<session_id>.json.
type ConversationStore struct {
	mu  sync.Mutex
	dir string
}

// NewConversationStore roots a store at dir, which is created if absent.
func NewConversationStore(dir string) (*ConversationStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation store dir: %w", err)
	}
	return &ConversationStore{dir: dir}, nil
}

func shardPrefix(sessionID string) string {
	sum := md5.Sum([]byte(sessionID))
	return hex.EncodeToString(sum[:])[:2]
}

func (s *ConversationStore) pathFor(sessionID string) string {
	return filepath.Join(s.dir, shardPrefix(sessionID), sessionID+".json")
}

// Create starts a new, empty conversation record and saves it.
func (s *ConversationStore) Create(sessionID string) (*ConversationRecord, error) {
	now := time.Now()
	rec := &ConversationRecord{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Load reads a conversation record from disk. The second return value is
// false if no record exists for sessionID.
func (s *ConversationStore) Load(sessionID string) (*ConversationRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read conversation %s: %w", sessionID, err)
	}
	var rec ConversationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode conversation %s: %w", sessionID, err)
	}
	return &rec, true, nil
}

// Save writes rec to disk as-is, creating its shard directory as needed.
// Callers that mutate a record's content are responsible for updating
// UpdatedAt (AddMessage does this automatically).
func (s *ConversationStore) Save(rec *ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(rec.SessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create shard dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", rec.SessionID, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write conversation %s: %w", rec.SessionID, err)
	}
	return os.Rename(tmp, path)
}

// AddMessage appends a message to rec, summarizing older messages out of
// the live tail once it exceeds maxMessagesBeforeSummary, then saves.
func (s *ConversationStore) AddMessage(rec *ConversationRecord, msg core.Message) error {
	rec.Messages = append(rec.Messages, msg)
	if len(rec.Messages) > maxMessagesBeforeSummary {
		summarizeOldMessages(rec)
	}
	rec.UpdatedAt = time.Now()
	return s.Save(rec)
}

// summarizeOldMessages folds every message but the most recent
// summaryTailKept into rec.Summary, matching the reference truncation rule:
// user messages are kept to 200 characters, assistant turns are noted
// generically, and prior summary text is appended to rather than replaced.
func summarizeOldMessages(rec *ConversationRecord) {
	cut := len(rec.Messages) - summaryTailKept
	older := rec.Messages[:cut]
	rec.Messages = rec.Messages[cut:]

	var b strings.Builder
	for _, m := range older {
		switch m.Role {
		case core.RoleUser:
			content := m.Content
			if len(content) > 200 {
				content = content[:200] + "..."
			}
			fmt.Fprintf(&b, "User asked: %s\n", content)
		case core.RoleAssistant:
			b.WriteString("Assistant responded.\n")
		}
	}

	if rec.Summary == "" {
		rec.Summary = strings.TrimSpace(b.String())
		return
	}
	rec.Summary = rec.Summary + "\n---\n" + strings.TrimSpace(b.String())
}

// Delete removes a conversation's on-disk record, if present.
func (s *ConversationStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.pathFor(sessionID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete conversation %s: %w", sessionID, err)
	}
	return nil
}

// List returns the session ids of every persisted conversation, sorted by
// session id, across all shards.
func (s *ConversationStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list conversation store: %w", err)
	}
	for _, shard := range entries {
		if !shard.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.dir, shard.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			name := f.Name()
			if strings.HasSuffix(name, ".json") {
				ids = append(ids, strings.TrimSuffix(name, ".json"))
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CleanupOlderThan deletes every persisted conversation whose UpdatedAt
// predates the cutoff, returning the count removed.
func (s *ConversationStore) CleanupOlderThan(cutoff time.Time) (int, error) {
	ids, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, id := range ids {
		rec, ok, err := s.Load(id)
		if err != nil || !ok {
			continue
		}
		if rec.UpdatedAt.Before(cutoff) {
			if err := s.Delete(id); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
