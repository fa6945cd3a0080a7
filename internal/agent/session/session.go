// Package session holds per-user conversation state in memory.
package session

import (
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/llm"
)

// DefaultMaxHistory caps the number of turns kept per user.
const DefaultMaxHistory = 10

// Turn is one entry of the conversation history.
type Turn struct {
	Role    llm.Role
	Content string
	At      time.Time
}

// Session is the mutable state of one user's conversation.
type Session struct {
	UserID int64

	mu             sync.Mutex
	history        []Turn
	maxHistory     int
	pendingRequest string
	waiting        bool
	targetEmail    string
	emailSet       bool
	lastSeen       time.Time
	now            func() time.Time
}

func newSession(userID int64, maxHistory int, defaultEmail string, now func() time.Time) *Session {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Session{
		UserID:      userID,
		maxHistory:  maxHistory,
		targetEmail: defaultEmail,
		lastSeen:    now(),
		now:         now,
	}
}

// Append records a turn and drops the oldest turns beyond the cap.
// Empty content is not recorded.
func (s *Session) Append(role llm.Role, content string) {
	if content == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, Turn{Role: role, Content: content, At: s.now()})
	if over := len(s.history) - s.maxHistory; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// History returns a copy of the turns, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Messages converts the history into chat messages.
func (s *Session) Messages() []llm.Message {
	history := s.History()
	msgs := make([]llm.Message, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// ExpectAttachment marks the session as waiting for a file described by info.
func (s *Session) ExpectAttachment(info string) {
	s.mu.Lock()
	s.waiting = true
	s.pendingRequest = info
	s.mu.Unlock()
}

// ClearAttachmentRequest resets the waiting flag and the pending request.
func (s *Session) ClearAttachmentRequest() {
	s.mu.Lock()
	s.waiting = false
	s.pendingRequest = ""
	s.mu.Unlock()
}

// WaitingForAttachment reports whether a file is expected and what for.
func (s *Session) WaitingForAttachment() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiting, s.pendingRequest
}

// TargetEmail returns the recipient for this user's emails.
func (s *Session) TargetEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetEmail
}

// SetTargetEmail overrides the default recipient for the rest of the session.
func (s *Session) SetTargetEmail(email string) {
	s.mu.Lock()
	s.targetEmail = email
	s.emailSet = true
	s.mu.Unlock()
}

// HasCustomEmail reports whether the user picked the recipient with /set.
func (s *Session) HasCustomEmail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailSet
}

// LastSeen returns the time of the last access through the Manager.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}
