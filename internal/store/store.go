// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store keeps all conversation state: personas and groups loaded
// from TOML records, plus per-chat message histories held in memory and
// flushed to one JSON file per chat on every append.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/npchat-tui/internal/config"
	"github.com/jeranaias/npchat-tui/internal/model"
	"github.com/jeranaias/npchat-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// StorageError reports a failed filesystem operation with enough context
// to log usefully.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatType distinguishes one-on-one chats from group chats.
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// chatFile is the on-disk shape of one chat history.
type chatFile struct {
	ChatID      string          `json:"chat_id"`
	ChatType    ChatType        `json:"chat_type"`
	CharacterID string          `json:"character_id,omitempty"`
	Messages    []model.Message `json:"messages"`
}

// chat is the in-memory state for one conversation. Turn serialization
// lives in the store's lock map, not here, so a Reload can swap chat
// objects without invalidating a lock a worker already holds.
type chat struct {
	kind     ChatType
	messages []model.Message
}

// =============================================================================
// STORE
// =============================================================================

// Store owns all chat, persona, and group state. Safe for concurrent use:
// the outer mutex guards the maps, each chat carries its own lock.
type Store struct {
	cfg *config.Config

	charactersDir string
	groupsDir     string
	chatsDir      string

	mu         sync.RWMutex
	chats      map[string]*chat
	characters map[string]*model.Character
	groups     map[string]*model.Group

	// locks holds one mutex per chat id for turn serialization. Entries
	// are never removed or replaced, not even by Reload.
	locks map[string]*sync.Mutex
}

// NewStore creates a store over the configured data directories, creating
// them if needed.
func NewStore(cfg *config.Config) (*Store, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: "data dir", Err: err}
	}
	charactersDir, err := config.CharactersDir()
	if err != nil {
		return nil, err
	}
	groupsDir, err := config.GroupsDir()
	if err != nil {
		return nil, err
	}
	chatsDir, err := config.ChatsDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDirs(cfg, charactersDir, groupsDir, chatsDir), nil
}

// NewStoreWithDirs creates a store over explicit directories. Used by
// tests.
func NewStoreWithDirs(cfg *config.Config, charactersDir, groupsDir, chatsDir string) *Store {
	return &Store{
		cfg:           cfg,
		charactersDir: charactersDir,
		groupsDir:     groupsDir,
		chatsDir:      chatsDir,
		chats:         map[string]*chat{},
		characters:    map[string]*model.Character{},
		groups:        map[string]*model.Group{},
		locks:         map[string]*sync.Mutex{},
	}
}

// Load reads personas, groups, and chat histories from disk. Individual
// bad records are logged and skipped; loading never fails outright.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.characters = loadCharacters(s.charactersDir)
	s.groups = loadGroups(s.groupsDir)
	s.chats = loadChats(s.chatsDir, s.groups)
	return nil
}

// Reload re-reads all records from disk, replacing in-memory state. Used
// after settings edits.
func (s *Store) Reload() error {
	return s.Load()
}

// =============================================================================
// PERSONA / GROUP ACCESS
// =============================================================================

// Character returns the persona with the given id.
func (s *Store) Character(id string) (*model.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	return c, ok
}

// Characters returns all personas sorted by display name.
func (s *Store) Characters() []*model.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Character, 0, len(s.characters))
	for _, c := range s.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Group returns the group with the given id.
func (s *Store) Group(id string) (*model.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}

// Groups returns all groups sorted by name.
func (s *Store) Groups() []*model.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DisplayNames returns the id-to-name map used for history rendering.
func (s *Store) DisplayNames() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]string, len(s.characters))
	for id, c := range s.characters {
		names[id] = c.Name
	}
	return names
}

// CreateGroup builds a new group, writes its TOML record, and registers
// its chat.
func (s *Store) CreateGroup(name string, members []string) (*model.Group, error) {
	g := model.NewGroup(name, members)

	path := filepath.Join(s.groupsDir, g.ID+".toml")
	if err := writeTOML(path, g); err != nil {
		return nil, &StorageError{Op: "write", Path: path, Err: err}
	}

	s.mu.Lock()
	s.groups[g.ID] = g
	s.chats[g.ID] = &chat{kind: ChatGroup}
	s.mu.Unlock()

	return g, nil
}

// PhotoPath resolves a persona photo to its path under the persona's
// photos directory.
func (s *Store) PhotoPath(characterID string, p model.Photo) string {
	return filepath.Join(s.charactersDir, characterID, "photos", p.Filename)
}

// =============================================================================
// CHAT ACCESS
// =============================================================================

// ChatKind reports whether the chat id names a private or group chat,
// derived from set membership.
func (s *Store) ChatKind(chatID string) (ChatType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.groups[chatID]; ok {
		return ChatGroup, true
	}
	if _, ok := s.characters[chatID]; ok {
		return ChatPrivate, true
	}
	return "", false
}

// ChatLock returns the mutex serializing the given chat. Turn workers
// hold it for the whole turn so that overlapping submissions interleave
// at turn granularity, never mid-turn. The same mutex is returned for a
// chat id across Reload.
func (s *Store) ChatLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

// Append stores one message at the tail of the chat and flushes the chat
// file. The stored message is returned for display.
func (s *Store) Append(chatID string, msg model.Message) (model.Message, error) {
	c := s.ensureChat(chatID)

	s.mu.Lock()
	c.messages = append(c.messages, msg)
	snapshot := s.fileSnapshot(chatID, c)
	s.mu.Unlock()

	if err := s.flush(chatID, snapshot); err != nil {
		return msg, err
	}
	return msg, nil
}

// Messages returns a copy of the full in-memory history for the chat.
func (s *Store) Messages(chatID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Recent returns a copy of the most recent n messages.
func (s *Store) Recent(chatID string, n int) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok || n <= 0 {
		return nil
	}
	msgs := c.messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ChatIDs returns the ids of all chats that have history, sorted.
func (s *Store) ChatIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.chats))
	for id := range s.chats {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (s *Store) ensureChat(chatID string) *chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		kind := ChatPrivate
		if _, isGroup := s.groups[chatID]; isGroup {
			kind = ChatGroup
		}
		c = &chat{kind: kind}
		s.chats[chatID] = c
	}
	return c
}

// fileSnapshot builds the on-disk record, trimmed to the persistence
// window. Caller holds the store mutex.
func (s *Store) fileSnapshot(chatID string, c *chat) chatFile {
	window := s.cfg.History.PersistWindow
	msgs := c.messages
	if window > 0 && len(msgs) > window {
		msgs = msgs[len(msgs)-window:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)

	file := chatFile{ChatID: chatID, ChatType: c.kind, Messages: out}
	if c.kind == ChatPrivate {
		file.CharacterID = chatID
	}
	return file
}

func (s *Store) flush(chatID string, file chatFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return &StorageError{Op: "marshal", Path: chatID, Err: err}
	}
	path := filepath.Join(s.chatsDir, chatID+".json")
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// loadChats reads every chat file in dir. Malformed files are logged and
// treated as empty history.
func loadChats(dir string, groups map[string]*model.Group) map[string]*chat {
	chats := map[string]*chat{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("store: cannot read chats dir %s: %v", dir, err)
		}
		return chats
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("store: cannot read chat file %s: %v", path, err)
			continue
		}
		if len(data) == 0 {
			log.Printf("store: empty chat file %s, starting fresh", path)
			continue
		}

		var file chatFile
		if err := json.Unmarshal(data, &file); err != nil {
			log.Printf("store: malformed chat file %s, starting fresh: %v", path, err)
			continue
		}
		id := file.ChatID
		if id == "" {
			id = strings.TrimSuffix(entry.Name(), ".json")
		}

		kind := file.ChatType
		if kind == "" {
			kind = ChatPrivate
			if _, ok := groups[id]; ok {
				kind = ChatGroup
			}
		}
		chats[id] = &chat{kind: kind, messages: file.Messages}
	}
	return chats
}
