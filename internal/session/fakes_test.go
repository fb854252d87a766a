package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/templui/lanchat/internal/autherr"
	"github.com/templui/lanchat/internal/model"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu sync.Mutex

	ident      *model.Identity
	signInErr  error
	signUpErr  error
	credErr    error
	profileErr error
	mergeErr   error
	mergeFails int // the next mergeFails merges fail with a network error
	signOutErr error
	block      chan struct{} // when set, SignIn waits on it

	docs       map[string]model.Document
	merges     []model.Document
	names      map[string]string
	signedOut  bool
	subscriber func(uid string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ident: &model.Identity{UID: "uid-1", Email: "ana@example.com", IDToken: "token"},
		docs:  make(map[string]model.Document),
		names: make(map[string]string),
	}
}

func (s *fakeStore) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	ident := *s.ident
	return &ident, nil
}

func (s *fakeStore) SignUp(ctx context.Context, email, password string) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signUpErr != nil {
		return nil, s.signUpErr
	}
	return &model.Identity{UID: s.ident.UID, Email: email}, nil
}

func (s *fakeStore) SetDisplayName(ctx context.Context, uid, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[uid] = name
	return nil
}

func (s *fakeStore) SignInWithCredential(ctx context.Context, cred *model.FederatedCredential) (*model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credErr != nil {
		return nil, s.credErr
	}
	return &model.Identity{UID: "g-" + cred.Subject, Email: cred.Email, DisplayName: cred.DisplayName, PhotoURL: cred.PhotoURL}, nil
}

func (s *fakeStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedOut = true
	return s.signOutErr
}

func (s *fakeStore) Subscribe(fn func(uid string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriber = fn
	return func() {
		s.mu.Lock()
		s.subscriber = nil
		s.mu.Unlock()
	}
}

func (s *fakeStore) Profile(ctx context.Context, uid string) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	doc, ok := s.docs[uid]
	if !ok {
		return nil, nil
	}
	return maps.Clone(doc), nil
}

func (s *fakeStore) MergeProfile(ctx context.Context, uid string, doc model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mergeErr != nil {
		return s.mergeErr
	}
	if s.mergeFails > 0 {
		s.mergeFails--
		return autherr.New(autherr.NetworkFailed)
	}
	s.merges = append(s.merges, maps.Clone(doc))
	stored, ok := s.docs[uid]
	if !ok {
		stored = model.Document{model.FieldCreatedAt: testNow}
	}
	for k, v := range doc.Resolve(testNow) {
		stored[k] = v
	}
	s.docs[uid] = stored
	return nil
}

func (s *fakeStore) doc(uid string) model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.docs[uid])
}

func (s *fakeStore) set(fn func(s *fakeStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *fakeStore) notify(uid string) {
	s.mu.Lock()
	fn := s.subscriber
	s.mu.Unlock()
	if fn != nil {
		fn(uid)
	}
}

type memPersistence struct {
	mu        sync.Mutex
	data      map[string][]byte
	getErr    error
	setErr    error
	deleteErr error
}

func newMemPersistence() *memPersistence {
	return &memPersistence{data: make(map[string][]byte)}
}

func (p *memPersistence) Get(ctx context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	v, ok := p.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (p *memPersistence) Set(ctx context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return p.setErr
	}
	p.data[key] = append([]byte(nil), value...)
	return nil
}

func (p *memPersistence) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	delete(p.data, key)
	return nil
}

func (p *memPersistence) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.data[key]
	return ok
}

type fakeProvider struct {
	cred *model.FederatedCredential
	err  error
}

func (p *fakeProvider) Credential(ctx context.Context) (*model.FederatedCredential, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.cred, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSender) SendVerification(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, email)
	return s.err
}
