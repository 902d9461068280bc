// Package session holds the signed-in administrator's token and identity and
// persists them across restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/naveenspark/w7admin/pkg/domain"
)

// Persisted keys.
const (
	KeyToken = "adminToken"
	KeyAdmin = "adminData"
)

// ErrEmptyToken is returned by Establish for a blank token.
var ErrEmptyToken = errors.New("session: empty token")

// Store is the single source of truth for "is someone signed in".
// The token and identity always change together.
type Store struct {
	mu    sync.RWMutex
	kv    KV
	log   *zap.Logger
	token string
	admin domain.Admin
}

// Open reads whatever session was persisted by a previous run. A token
// without readable identity data is treated as no session.
func Open(kv KV, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: kv, log: log}

	token, ok, err := kv.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("session.Open: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return s, nil
	}
	raw, ok, err := kv.Get(KeyAdmin)
	if err != nil {
		return nil, fmt.Errorf("session.Open: %w", err)
	}
	var admin domain.Admin
	if !ok || json.Unmarshal([]byte(raw), &admin) != nil {
		log.Warn("discarding session with unreadable identity")
		if err := s.remove(); err != nil {
			return nil, fmt.Errorf("session.Open: %w", err)
		}
		return s, nil
	}
	s.token = token
	s.admin = admin
	log.Debug("session restored", zap.String("username", admin.Username))
	return s, nil
}

// Establish records a new session. The identity is written before the token,
// so a reader of the persisted state never finds a token without identity.
func (s *Store) Establish(token string, admin domain.Admin) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	data, err := json.Marshal(admin)
	if err != nil {
		return fmt.Errorf("session.Establish: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(KeyAdmin, string(data)); err != nil {
		return fmt.Errorf("session.Establish: %w", err)
	}
	if err := s.kv.Set(KeyToken, token); err != nil {
		s.rollbackAdmin()
		return fmt.Errorf("session.Establish: %w", err)
	}
	s.token = token
	s.admin = admin
	s.log.Info("session established", zap.String("username", admin.Username), zap.String("role", admin.Role))
	return nil
}

// Clear ends the session. The in-memory pair is dropped even when the
// persisted keys cannot be removed.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.token = ""
	s.admin = domain.Admin{}
	if err := s.remove(); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	if had {
		s.log.Info("session cleared")
	}
	return nil
}

// rollbackAdmin puts back the identity that matches the persisted token
// after a half-finished Establish. Callers hold s.mu.
func (s *Store) rollbackAdmin() {
	var err error
	if s.token == "" {
		err = s.kv.Remove(KeyAdmin)
	} else {
		var data []byte
		if data, err = json.Marshal(s.admin); err == nil {
			err = s.kv.Set(KeyAdmin, string(data))
		}
	}
	if err != nil {
		s.log.Error("restore identity after failed establish", zap.Error(err))
	}
}

// token first: with it gone the identity is inert.
func (s *Store) remove() error {
	if err := s.kv.Remove(KeyToken); err != nil {
		return err
	}
	return s.kv.Remove(KeyAdmin)
}

// Current returns a snapshot of the session.
func (s *Store) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return domain.Session{}, false
	}
	return domain.Session{Token: s.token, Admin: s.admin}, true
}

// Active reports whether someone is signed in.
func (s *Store) Active() bool {
	_, ok := s.Current()
	return ok
}

// BearerToken implements client.Credentials.
func (s *Store) BearerToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}
