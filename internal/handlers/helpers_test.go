package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/motorpool/apiserver/config"
	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/storage"
	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{
	Key:               "handlers-test-signing-key-0123456789abcdef",
	Issuer:            "motorpool",
	Audience:          "motorpool",
	ExpirationMinutes: 60,
}

func newTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(testJWT)
	require.NoError(t, err)
	return svc
}

func tokenFor(t *testing.T, tokens *auth.TokenService, user types.User) string {
	t.Helper()
	token, err := tokens.Issue(user)
	require.NoError(t, err)
	return token.Token
}

func bearer(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func withCSRF(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "csrf-pair"})
	r.Header.Set(CSRFHeaderName, "csrf-pair")
	return r
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type memUsers struct {
	mu     sync.Mutex
	byID   map[int]types.User
	nextID int
}

func newMemUsers(users ...types.User) *memUsers {
	m := &memUsers{byID: map[int]types.User{}, nextID: 1}
	for _, u := range users {
		m.byID[u.ID] = u
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
	}
	return m
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUsers) List(_ context.Context, filter types.UserFilter) ([]types.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.User
	for _, u := range m.byID {
		if filter.Role.Valid() && u.Role != filter.Role {
			continue
		}
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].Email < out[j].Email
		}
		return out[i].Email > out[j].Email
	})
	total := len(out)
	start := min(filter.Offset(), total)
	end := min(start+filter.PageSize, total)
	return out[start:end], total, nil
}

func (m *memUsers) remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
}

type memVehicles struct {
	byID   map[int]types.Vehicle
	nextID int
}

func newMemVehicles(vehicles ...types.Vehicle) *memVehicles {
	m := &memVehicles{byID: map[int]types.Vehicle{}, nextID: 1}
	for _, v := range vehicles {
		m.byID[v.ID] = v
		if v.ID >= m.nextID {
			m.nextID = v.ID + 1
		}
	}
	return m
}

func (m *memVehicles) List(_ context.Context, filter types.VehicleFilter) ([]types.Vehicle, int, error) {
	var out []types.Vehicle
	for _, v := range m.byID {
		if filter.Brand != "" && !strings.EqualFold(v.Brand, filter.Brand) {
			continue
		}
		if filter.Year != 0 && v.Year != filter.Year {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].Name < out[j].Name
		}
		return out[i].Name > out[j].Name
	})
	total := len(out)
	start := min(filter.Offset(), total)
	end := min(start+filter.PageSize, total)
	return out[start:end], total, nil
}

func (m *memVehicles) Get(_ context.Context, id int) (types.Vehicle, error) {
	v, ok := m.byID[id]
	if !ok {
		return types.Vehicle{}, store.ErrNotFound
	}
	return v, nil
}

func (m *memVehicles) Create(_ context.Context, v types.Vehicle) (types.Vehicle, error) {
	v.ID = m.nextID
	m.nextID++
	m.byID[v.ID] = v
	return v, nil
}

func (m *memVehicles) Update(_ context.Context, v types.Vehicle) (types.Vehicle, error) {
	if _, ok := m.byID[v.ID]; !ok {
		return types.Vehicle{}, store.ErrNotFound
	}
	m.byID[v.ID] = v
	return v, nil
}

func (m *memVehicles) Delete(_ context.Context, id int) error {
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memObjects struct {
	data  map[string][]byte
	ctype map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{data: map[string][]byte{}, ctype: map[string]string{}}
}

func (m *memObjects) EnsureBucket(context.Context) error { return nil }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ctype[key] = contentType
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (storage.Object, error) {
	b, ok := m.data[key]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return storage.Object{Body: io.NopCloser(bytes.NewReader(b)), ContentType: m.ctype[key], Size: int64(len(b))}, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memObjects) Bucket() string { return "test" }

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
