package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const userCreated = `{
  "type": "user.created",
  "data": {
    "id": "user_2abc",
    "first_name": "Siti",
    "last_name": "Nurhaliza",
    "image_url": "https://img.clerk.com/siti.png",
    "primary_email_address_id": "idn_2",
    "primary_phone_number_id": "idn_p1",
    "email_addresses": [
      {"id": "idn_1", "email_address": "old@example.com"},
      {"id": "idn_2", "email_address": "siti@example.com"}
    ],
    "phone_numbers": [
      {"id": "idn_p1", "phone_number": "+6281234567890"}
    ]
  }
}`

type memStore struct {
	users     []*models.User
	createErr error
}

func (s *memStore) FindUser(ctx context.Context, id string, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id || u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateUser(ctx context.Context, u *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.users = append(s.users, u)
	return nil
}

type fakePatcher struct {
	calls map[string]types.Role
	err   error
}

func (p *fakePatcher) SetRole(ctx context.Context, userID string, role types.Role) error {
	if p.calls == nil {
		p.calls = map[string]types.Role{}
	}
	p.calls[userID] = role
	return p.err
}

func TestUserCreated(t *testing.T) {
	store := &memStore{}
	patcher := &fakePatcher{}
	svc := NewService(store, patcher, nil)

	res, err := svc.HandleEvent(context.Background(), "msg_1", []byte(userCreated))
	require.NoError(t, err)
	assert.Equal(t, STATUS_CREATED, res.Status)
	require.Len(t, store.users, 1)

	u := store.users[0]
	assert.Equal(t, "user_2abc", u.ID)
	assert.Equal(t, "Siti Nurhaliza", u.Name)
	assert.Equal(t, "siti@example.com", u.Email)
	assert.Equal(t, "+6281234567890", *u.Phone)
	assert.Equal(t, "https://img.clerk.com/siti.png", *u.AvatarURL)
	assert.Equal(t, types.ROLE_STUDENT, u.Role)
	assert.Equal(t, types.ROLE_STUDENT, patcher.calls["user_2abc"])
}

func TestUserCreatedExistingEmail(t *testing.T) {
	store := &memStore{users: []*models.User{{ID: "user_old", Email: "siti@example.com"}}}
	patcher := &fakePatcher{}
	svc := NewService(store, patcher, nil)

	res, err := svc.HandleEvent(context.Background(), "msg_1", []byte(userCreated))
	require.NoError(t, err)
	assert.Equal(t, STATUS_EXISTS, res.Status)
	assert.Equal(t, "user_old", res.UserID)
	assert.Len(t, store.users, 1)
	assert.Empty(t, patcher.calls)
}

func TestUserCreatedPatchFailureIsSwallowed(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, &fakePatcher{err: errors.New("clerk unavailable")}, nil)

	res, err := svc.HandleEvent(context.Background(), "msg_1", []byte(userCreated))
	require.NoError(t, err)
	assert.Equal(t, STATUS_CREATED, res.Status)
}

func TestOtherEventsIgnored(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, nil)

	res, err := svc.HandleEvent(context.Background(), "msg_1", []byte(`{"type":"user.deleted","data":{"id":"user_2abc"}}`))
	require.NoError(t, err)
	assert.Equal(t, STATUS_IGNORED, res.Status)
	assert.Empty(t, store.users)
}

func TestUserCreatedWithoutEmail(t *testing.T) {
	svc := NewService(&memStore{}, nil, nil)
	_, err := svc.HandleEvent(context.Background(), "msg_1", []byte(`{"type":"user.created","data":{"id":"user_2abc","email_addresses":[]}}`))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.HandleEvent(context.Background(), "msg_1", []byte(`not json`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPrimaryEmailFallsBackToFirst(t *testing.T) {
	data := UserData{EmailAddresses: []EmailAddress{{ID: "a", EmailAddress: " first@example.com "}}}
	assert.Equal(t, "first@example.com", data.PrimaryEmail())
	assert.Equal(t, "", UserData{}.PrimaryPhone())
	assert.Equal(t, "Siti", UserData{FirstName: "Siti"}.FullName())
}

func TestRedeliveryIsDropped(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := &memStore{}
	svc := NewService(store, nil, rdb)

	mock.ExpectSetNX("clerk:webhook:msg_1", 1, 24*time.Hour).SetVal(true)
	res, err := svc.HandleEvent(context.Background(), "msg_1", []byte(userCreated))
	require.NoError(t, err)
	assert.Equal(t, STATUS_CREATED, res.Status)

	mock.ExpectSetNX("clerk:webhook:msg_1", 1, 24*time.Hour).SetVal(false)
	res, err = svc.HandleEvent(context.Background(), "msg_1", []byte(userCreated))
	require.NoError(t, err)
	assert.Equal(t, STATUS_DUPLICATE, res.Status)
	assert.Len(t, store.users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedDeliveryReleasesKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	svc := NewService(&memStore{createErr: errors.New("connection reset")}, nil, rdb)

	mock.ExpectSetNX("clerk:webhook:msg_2", 1, 24*time.Hour).SetVal(true)
	mock.ExpectDel("clerk:webhook:msg_2").SetVal(1)
	_, err := svc.HandleEvent(context.Background(), "msg_2", []byte(userCreated))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClerkPatcher(t *testing.T) {
	var path, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"user","id":"user_2abc","public_metadata":{"role":"student"}}`))
	}))
	defer server.Close()

	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String("sk_test_123")
	cfg.URL = clerk.String(server.URL)
	patcher := &ClerkPatcher{users: user.NewClient(cfg)}

	require.NoError(t, patcher.SetRole(context.Background(), "user_2abc", types.ROLE_STUDENT))
	assert.Contains(t, path, "/users/user_2abc/metadata")
	assert.Equal(t, "student", gjson.Get(body, "public_metadata.role").String())
	assert.Nil(t, NewClerkPatcher(""))
}
