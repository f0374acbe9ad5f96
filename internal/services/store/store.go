// Package store is the single source of truth for the console: site
// settings, blog posts, contact messages, scan history and the demo session.
//
// Every mutation is written to its slot before the call returns. State is
// guarded by one mutex and in-memory state only changes after the write
// succeeded, so readers never observe a value that is not persisted.
package store

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/metrics"
	"phishdetect/internal/ports"
)

// Slot names. The durable slots hold JSON documents; the session slots hold
// the authentication flag and the signed-in user.
const (
	SlotSettings = "v3_settings"
	SlotPosts    = "v3_posts"
	SlotMessages = "v3_messages"
	SlotScans    = "v3_scans"
	SlotAuth     = "v3_auth"
	SlotUser     = "v3_user"
)

// DefaultPassphrase is the shared demo passphrase. The demo login is not a
// security boundary.
const DefaultPassphrase = "admin123"

const (
	timestampLayout = "1/2/2006, 3:04:05 PM"
	postDateLayout  = "Jan 2, 2006"
)

type Options struct {
	Passphrase string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	// Events receives every recorded scan. Optional.
	Events ports.EventPublisher
	Now    func() time.Time
	NewID  func() string
}

type Store struct {
	durable ports.SlotStore
	session ports.SlotStore

	passphrase string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	events     ports.EventPublisher
	now        func() time.Time
	newID      func() string

	mu       sync.Mutex
	settings domain.SiteSettings
	posts    []domain.BlogPost
	messages []domain.ContactMessage
	scans    []domain.ScanResult
	sess     domain.Session
}

// Open reads every slot once and returns a store backed by them. Slots that
// were never written, or hold unreadable JSON, start from their defaults.
func Open(ctx context.Context, durable, session ports.SlotStore, opts Options) (*Store, error) {
	if opts.Passphrase == "" {
		opts.Passphrase = DefaultPassphrase
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newID
	}
	s := &Store{
		durable:    durable,
		session:    session,
		passphrase: opts.Passphrase,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		events:     opts.Events,
		now:        opts.Now,
		newID:      opts.NewID,
		settings:   domain.DefaultSettings(),
		posts:      domain.SeedPosts(),
		messages:   []domain.ContactMessage{},
		scans:      []domain.ScanResult{},
	}

	if err := load(ctx, s, durable, SlotSettings, &s.settings); err != nil {
		return nil, err
	}
	if err := load(ctx, s, durable, SlotPosts, &s.posts); err != nil {
		return nil, err
	}
	if err := load(ctx, s, durable, SlotMessages, &s.messages); err != nil {
		return nil, err
	}
	if err := load(ctx, s, durable, SlotScans, &s.scans); err != nil {
		return nil, err
	}

	var auth bool
	if err := load(ctx, s, session, SlotAuth, &auth); err != nil {
		return nil, err
	}
	var user domain.User
	if err := load(ctx, s, session, SlotUser, &user); err != nil {
		return nil, err
	}
	if !s.settings.Theme.Valid() {
		s.logger.Warn("discarding unreadable slot", "slot", SlotSettings, "theme", s.settings.Theme)
		s.settings = domain.DefaultSettings()
	}
	if auth && user.Email != "" {
		s.sess = domain.Session{Authenticated: true, User: &user}
	}

	s.logger.Info("store opened",
		"posts", len(s.posts),
		"messages", len(s.messages),
		"scans", len(s.scans),
		"authenticated", s.sess.Authenticated)
	return s, nil
}

// load decodes a slot into dst. dst keeps its default when the slot is
// missing, null or corrupt; only a failing backend is an error.
func load[T any](ctx context.Context, s *Store, slots ports.SlotStore, slot string, dst *T) error {
	payload, found, err := slots.Load(ctx, slot)
	if err != nil {
		return errs.E(errs.KindStorage, "store.Open", "reading slot "+slot, err)
	}
	if !found {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		s.logger.Warn("discarding null slot", "slot", slot)
		return nil
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		s.logger.Warn("discarding unreadable slot", "slot", slot, "error", err)
		return nil
	}
	*dst = v
	return nil
}

func (s *Store) save(ctx context.Context, slots ports.SlotStore, op, slot string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errs.E(errs.KindStorage, op, "encoding slot "+slot, err)
	}
	if err := slots.Save(ctx, slot, payload); err != nil {
		return errs.E(errs.KindStorage, op, "writing slot "+slot, err)
	}
	return nil
}

func (s *Store) timestamp() string { return s.now().Format(timestampLayout) }

func newID() string { return uuid.Must(uuid.NewV7()).String() }

// Settings

func (s *Store) Settings() domain.SiteSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings merges the non-nil fields of patch into the settings.
func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.SiteSettings, error) {
	const op = "store.UpdateSettings"
	if patch.Theme != nil && !patch.Theme.Valid() {
		return domain.SiteSettings{}, errs.E(errs.KindInvalidInput, op, "theme must be light or dark")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if patch.PrimaryColor != nil {
		next.PrimaryColor = *patch.PrimaryColor
	}
	if patch.Theme != nil {
		next.Theme = *patch.Theme
	}
	if patch.SiteName != nil {
		next.SiteName = *patch.SiteName
	}
	if patch.MetaDescription != nil {
		next.MetaDescription = *patch.MetaDescription
	}
	if err := s.save(ctx, s.durable, op, SlotSettings, next); err != nil {
		return domain.SiteSettings{}, err
	}
	s.settings = next
	return next, nil
}

// Posts

func (s *Store) Posts() []domain.BlogPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

func (s *Store) Post(id string) (domain.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.BlogPost{}, errs.E(errs.KindNotFound, "store.Post", "no post "+id)
}

// AddPost prepends a post. An empty id or date is assigned.
func (s *Store) AddPost(ctx context.Context, p domain.BlogPost) (domain.BlogPost, error) {
	const op = "store.AddPost"
	if strings.TrimSpace(p.Title) == "" {
		return domain.BlogPost{}, errs.E(errs.KindInvalidInput, op, "title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.Date == "" {
		p.Date = s.now().Format(postDateLayout)
	}
	next := append([]domain.BlogPost{p}, s.posts...)
	if err := s.save(ctx, s.durable, op, SlotPosts, next); err != nil {
		return domain.BlogPost{}, err
	}
	s.posts = next
	return p, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	const op = "store.DeletePost"
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.BlogPost, 0, len(s.posts))
	for _, p := range s.posts {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(s.posts) {
		return errs.E(errs.KindNotFound, op, "no post "+id)
	}
	if err := s.save(ctx, s.durable, op, SlotPosts, next); err != nil {
		return err
	}
	s.posts = next
	return nil
}

// Messages

func (s *Store) Messages() []domain.ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// AddMessage prepends a contact message, assigning id and date and marking
// it unread.
func (s *Store) AddMessage(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	const op = "store.AddMessage"
	if strings.TrimSpace(m.Email) == "" || strings.TrimSpace(m.Message) == "" {
		return domain.ContactMessage{}, errs.E(errs.KindInvalidInput, op, "email and message are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.newID()
	m.Date = s.timestamp()
	m.IsRead = false
	next := append([]domain.ContactMessage{m}, s.messages...)
	if err := s.save(ctx, s.durable, op, SlotMessages, next); err != nil {
		return domain.ContactMessage{}, err
	}
	s.messages = next
	return m, nil
}

func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	const op = "store.DeleteMessage"
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.ContactMessage, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID != id {
			next = append(next, m)
		}
	}
	if len(next) == len(s.messages) {
		return errs.E(errs.KindNotFound, op, "no message "+id)
	}
	if err := s.save(ctx, s.durable, op, SlotMessages, next); err != nil {
		return err
	}
	s.messages = next
	return nil
}

func (s *Store) MarkMessageRead(ctx context.Context, id string) error {
	const op = "store.MarkMessageRead"
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]domain.ContactMessage(nil), s.messages...)
	found := false
	for i := range next {
		if next[i].ID == id {
			next[i].IsRead = true
			found = true
		}
	}
	if !found {
		return errs.E(errs.KindNotFound, op, "no message "+id)
	}
	if err := s.save(ctx, s.durable, op, SlotMessages, next); err != nil {
		return err
	}
	s.messages = next
	return nil
}

// Scans

// Scans returns the scan history, newest first.
func (s *Store) Scans() []domain.ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.scans)
}

func (s *Store) Scan(id string) (domain.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.scans {
		if sc.ID == id {
			return sc, nil
		}
	}
	return domain.ScanResult{}, errs.E(errs.KindNotFound, "store.Scan", "no scan "+id)
}

// AddScan records a scan. id, date and the signed-in user's email are
// assigned here; whatever the caller put in those fields is replaced.
func (s *Store) AddScan(ctx context.Context, partial domain.ScanResult) (domain.ScanResult, error) {
	const op = "store.AddScan"
	if !partial.Type.Valid() {
		return domain.ScanResult{}, errs.E(errs.KindInvalidInput, op, "unknown scan type "+string(partial.Type))
	}
	if !partial.Verdict.Valid() {
		return domain.ScanResult{}, errs.E(errs.KindInvalidInput, op, "unknown verdict "+string(partial.Verdict))
	}

	s.mu.Lock()
	scan := partial
	scan.ID = s.newID()
	scan.Date = s.timestamp()
	scan.UserEmail = ""
	if s.sess.Authenticated && s.sess.User != nil {
		scan.UserEmail = s.sess.User.Email
	}
	if scan.RedFlags == nil {
		scan.RedFlags = []string{}
	}
	next := append([]domain.ScanResult{scan}, s.scans...)
	if err := s.save(ctx, s.durable, op, SlotScans, next); err != nil {
		s.mu.Unlock()
		return domain.ScanResult{}, err
	}
	s.scans = next
	s.mu.Unlock()

	s.metrics.ScanRecorded(string(scan.Type), string(scan.Verdict))
	s.logger.Info("scan recorded", "id", scan.ID, "type", scan.Type, "verdict", scan.Verdict)
	if s.events != nil {
		if err := s.events.PublishScan(ctx, scan); err != nil {
			s.metrics.EventPublishFailed()
			s.logger.Warn("scan event not published", "id", scan.ID, "error", err)
		}
	}
	return scan, nil
}

// Session

func (s *Store) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sess
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// Login opens the demo session. It succeeds for any syntactically valid
// address together with the shared passphrase.
func (s *Store) Login(ctx context.Context, email, passphrase string) (bool, error) {
	const op = "store.Login"
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(passphrase), []byte(s.passphrase)) != 1 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := domain.User{Email: addr.Address}
	if err := s.save(ctx, s.session, op, SlotAuth, true); err != nil {
		return false, err
	}
	if err := s.save(ctx, s.session, op, SlotUser, user); err != nil {
		// The user slot still holds the previous session, if any.
		if !s.sess.Authenticated {
			_ = s.session.Delete(ctx, SlotAuth)
		}
		return false, err
	}
	s.sess = domain.Session{Authenticated: true, User: &user}
	s.logger.Info("session opened", "email", user.Email)
	return true, nil
}

func (s *Store) Logout(ctx context.Context) error {
	const op = "store.Logout"
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Delete(ctx, SlotAuth); err != nil {
		return errs.E(errs.KindStorage, op, "clearing slot "+SlotAuth, err)
	}
	// Without the auth slot the session no longer survives a reload.
	s.sess = domain.Session{}
	if err := s.session.Delete(ctx, SlotUser); err != nil {
		return errs.E(errs.KindStorage, op, "clearing slot "+SlotUser, err)
	}
	return nil
}
