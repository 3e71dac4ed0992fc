// Package session 保存登录会话（bearer token + 用户信息），并在会话变化时通知订阅者。
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

const EventAuthChanged = "auth_changed"

var ErrNoSession = errors.New("no active session")

// User 会话中的用户信息
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Session 一次登录。Token 是调用计费后端时携带的 bearer token
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Event 会话变更事件，LoggedIn=false 时 User 为空
type Event struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	LoggedIn bool   `json:"logged_in"`
	User     *User  `json:"user,omitempty"`
}

// Store 会话存储
type Store interface {
	Save(ctx context.Context, userID int64, s *Session, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (*Session, error)
	Delete(ctx context.Context, userID int64) error
}

type Service struct {
	store Store
	ttl   time.Duration

	mu        sync.RWMutex
	observers map[int]func(Event)
	nextID    int
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store:     store,
		ttl:       ttl,
		observers: make(map[int]func(Event)),
	}
}

// Save 保存会话并广播登录事件
func (s *Service) Save(ctx context.Context, userID int64, token string, user User) error {
	sess := &Session{
		Token:     token,
		User:      user,
		CreatedAt: time.Now(),
	}
	if err := s.store.Save(ctx, userID, sess, s.ttl); err != nil {
		return err
	}

	u := user
	s.notify(Event{Type: EventAuthChanged, UserID: userID, LoggedIn: true, User: &u})
	return nil
}

// Get 读取会话，不存在时返回 ErrNoSession
func (s *Service) Get(ctx context.Context, userID int64) (*Session, error) {
	sess, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Token == "" {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Clear 删除会话并广播登出事件
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	s.notify(Event{Type: EventAuthChanged, UserID: userID, LoggedIn: false})
	return nil
}

// Subscribe 注册观察者，返回取消订阅函数
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// notify 同步通知，回调在锁外执行，允许回调里再订阅/退订
func (s *Service) notify(evt Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
