package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(key string) ([]byte, bool, error) {
	args := m.Called(key)
	var value []byte
	if v := args.Get(0); v != nil {
		value = v.([]byte)
	}
	return value, args.Bool(1), args.Error(2)
}

func (m *MockStore) Put(key string, value []byte) error {
	args := m.Called(key, value)
	return args.Error(0)
}

// mapStore is a minimal in-memory Store
type mapStore map[string][]byte

func (s mapStore) Get(key string) ([]byte, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

func (s mapStore) Put(key string, value []byte) error {
	s[key] = value
	return nil
}

func TestProvider_ID_StableAcrossCalls(t *testing.T) {
	store := mapStore{}
	p := NewProvider(store, nil)

	first := p.ID()
	second := p.ID()

	assert.Equal(t, first, second)
	_, err := uuid.Parse(first)
	assert.NoError(t, err)
	assert.Equal(t, first, string(store[Key]))
}

func TestProvider_ID_ReusesPersisted(t *testing.T) {
	store := mapStore{Key: []byte("existing-session")}

	assert.Equal(t, "existing-session", NewProvider(store, nil).ID())
}

func TestProvider_ID_RegeneratesWhenCleared(t *testing.T) {
	store := mapStore{}
	p := NewProvider(store, nil)

	first := p.ID()
	delete(store, Key)
	second := p.ID()

	assert.NotEqual(t, first, second)
}

func TestProvider_ID_TimestampFallback(t *testing.T) {
	store := mapStore{}
	p := NewProvider(store, nil)
	p.generate = func() (uuid.UUID, error) { return uuid.Nil, errors.New("no entropy") }
	p.now = func() time.Time { return time.UnixMilli(1700000000123) }

	assert.Equal(t, "1700000000123", p.ID())
}

func TestProvider_ID_StoreFailures(t *testing.T) {
	store := new(MockStore)
	store.On("Get", Key).Return(nil, false, errors.New("disk gone"))
	store.On("Put", Key, mock.Anything).Return(errors.New("read-only"))

	p := NewProvider(store, nil)
	first := p.ID()
	second := p.ID()

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
	store.AssertNumberOfCalls(t, "Put", 1)
}
