package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"medichat/completion"
	"medichat/models"
)

type clientFunc func(ctx context.Context, text string) (completion.Reply, error)

func (f clientFunc) Complete(ctx context.Context, text string) (completion.Reply, error) {
	return f(ctx, text)
}

type savedExchange struct {
	userID   uint
	userText string
	botText  string
}

type stubStore struct {
	saves    []savedExchange
	failSave bool
	nextID   uint
}

func (s *stubStore) SaveExchange(userID uint, userText, botText string, meta datatypes.JSON) (uint, error) {
	if s.failSave {
		return 0, errors.New("disk full")
	}
	s.saves = append(s.saves, savedExchange{userID: userID, userText: userText, botText: botText})
	s.nextID++
	return s.nextID, nil
}

func (s *stubStore) History(userID uint) ([]models.ChatMessage, error) { return nil, nil }
func (s *stubStore) Delete(userID, messageID uint) error              { return nil }

func okClient(reply string) clientFunc {
	return func(ctx context.Context, text string) (completion.Reply, error) {
		return completion.Reply{Text: reply, Model: "gpt-3.5-turbo"}, nil
	}
}

func uintPtr(v uint) *uint { return &v }

func TestExchangeRejectsEmptyMessage(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, okClient("hi"))

	for _, text := range []string{"", "   ", "<p></p>"} {
		_, err := svc.Exchange(context.Background(), uintPtr(1), text)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "input %q", text)
	}
	assert.Empty(t, store.saves)
}

func TestExchangeAnonymousNeverPersists(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, okClient("hi"))

	res, err := svc.Exchange(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Reply)
	assert.Zero(t, res.MessageID)
	assert.False(t, res.Persisted)
	assert.False(t, res.StorageFailed)
	assert.Empty(t, store.saves, "anonymous exchange must not touch the store")
}

func TestExchangeAuthenticatedPersistsBothTurns(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, okClient("take two aspirin"))

	res, err := svc.Exchange(context.Background(), uintPtr(7), "  <b>headache</b>  ")
	require.NoError(t, err)
	assert.Equal(t, "take two aspirin", res.Reply)
	assert.True(t, res.Persisted)
	assert.NotZero(t, res.MessageID)

	require.Len(t, store.saves, 1)
	assert.Equal(t, uint(7), store.saves[0].userID)
	assert.Equal(t, "headache", store.saves[0].userText, "input is sanitized before persistence")
	assert.Equal(t, "take two aspirin", store.saves[0].botText)
}

func TestExchangeFatalUpstreamReturnsErrorWithoutPersisting(t *testing.T) {
	store := &stubStore{}
	upstream := &completion.UpstreamError{Category: completion.CategoryAuth, Retryable: false, Err: errors.New("bad key")}
	svc := NewService(store, clientFunc(func(ctx context.Context, text string) (completion.Reply, error) {
		return completion.Reply{}, upstream
	}))

	_, err := svc.Exchange(context.Background(), uintPtr(1), "hello")
	var ue *completion.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, completion.CategoryAuth, ue.Category)
	assert.Empty(t, store.saves)
}

func TestExchangeRetryableUpstreamReturnsErrorWithoutPersisting(t *testing.T) {
	store := &stubStore{}
	upstream := &completion.UpstreamError{Category: completion.CategoryRateLimit, Retryable: true, Err: errors.New("rate limited")}
	svc := NewService(store, clientFunc(func(ctx context.Context, text string) (completion.Reply, error) {
		return completion.Reply{}, upstream
	}))

	_, err := svc.Exchange(context.Background(), uintPtr(1), "hello")
	var ue *completion.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Retryable)
	assert.Empty(t, store.saves)
}

func TestExchangeStorageFailureDegradesToUnpersistedSuccess(t *testing.T) {
	store := &stubStore{failSave: true}
	svc := NewService(store, okClient("still here"))

	res, err := svc.Exchange(context.Background(), uintPtr(3), "hello")
	require.NoError(t, err, "a generated answer is never discarded over a storage failure")
	assert.Equal(t, "still here", res.Reply)
	assert.False(t, res.Persisted)
	assert.True(t, res.StorageFailed)
	assert.Zero(t, res.MessageID)
}

func TestSanitizeStripsTags(t *testing.T) {
	assert.Equal(t, "hello", sanitize("<script>hello</script>"))
	assert.Equal(t, "a b", sanitize("  a<br/> b  "))
	assert.Equal(t, "", sanitize("<div><span></span></div>"))
}
