package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/storage"
	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int]types.User
	nextID int

	getErr    error
	createErr error
}

func newFakeUsers(users ...types.User) *fakeUsers {
	f := &fakeUsers{byID: map[int]types.User{}, nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = f.nextID
		}
		f.byID[u.ID] = u
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return types.User{}, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return types.User{}, f.getErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return types.User{}, f.createErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = f.nextID
	f.nextID++
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUsers) List(_ context.Context, filter types.UserFilter) ([]types.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []types.User
	for _, u := range f.byID {
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		if filter.Role.Valid() && u.Role != filter.Role {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })
	total := len(matched)
	start := min(filter.Offset(), total)
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

// plainHasher stores passwords with a visible prefix so tests can assert
// that the stored digest is never the plaintext.
type plainHasher struct{ err error }

func (h plainHasher) Hash(plaintext string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plaintext, nil
}

func (h plainHasher) Verify(plaintext, digest string) bool {
	return digest == "hashed:"+plaintext
}

type fakeTokens struct {
	issued []types.User
	err    error
}

func (f *fakeTokens) Issue(user types.User) (auth.AuthToken, error) {
	if f.err != nil {
		return auth.AuthToken{}, f.err
	}
	f.issued = append(f.issued, user)
	return auth.AuthToken{Token: "token-for-" + user.Email, TokenType: auth.TokenType}, nil
}

type fakeEvents struct {
	events []types.AccountEvent
	err    error
}

func (f *fakeEvents) PublishAccountEvent(_ context.Context, event types.AccountEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeVehicles struct {
	byID      map[int]types.Vehicle
	nextID    int
	updateErr error
	lastList  types.VehicleFilter
}

func newFakeVehicles(vehicles ...types.Vehicle) *fakeVehicles {
	f := &fakeVehicles{byID: map[int]types.Vehicle{}, nextID: 1}
	for _, v := range vehicles {
		f.byID[v.ID] = v
		if v.ID >= f.nextID {
			f.nextID = v.ID + 1
		}
	}
	return f
}

func (f *fakeVehicles) List(_ context.Context, filter types.VehicleFilter) ([]types.Vehicle, int, error) {
	f.lastList = filter
	out := make([]types.Vehicle, 0, len(f.byID))
	for _, v := range f.byID {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeVehicles) Get(_ context.Context, id int) (types.Vehicle, error) {
	v, ok := f.byID[id]
	if !ok {
		return types.Vehicle{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicles) Create(_ context.Context, v types.Vehicle) (types.Vehicle, error) {
	v.ID = f.nextID
	f.nextID++
	f.byID[v.ID] = v
	return v, nil
}

func (f *fakeVehicles) Update(_ context.Context, v types.Vehicle) (types.Vehicle, error) {
	if f.updateErr != nil {
		return types.Vehicle{}, f.updateErr
	}
	if _, ok := f.byID[v.ID]; !ok {
		return types.Vehicle{}, store.ErrNotFound
	}
	f.byID[v.ID] = v
	return v, nil
}

func (f *fakeVehicles) Delete(_ context.Context, id int) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePhotos struct {
	disabled bool
	objects  map[string][]byte
	types    map[string]string
	delErr   error
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakePhotos) Enabled() bool { return !f.disabled }

func (f *fakePhotos) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = b
	f.types[key] = contentType
	return nil
}

func (f *fakePhotos) Get(_ context.Context, key string) (storage.Object, error) {
	b, ok := f.objects[key]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return storage.Object{
		Body:        io.NopCloser(bytes.NewReader(b)),
		ContentType: f.types[key],
		Size:        int64(len(b)),
	}, nil
}

func (f *fakePhotos) Delete(_ context.Context, key string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

var errBoom = errors.New("boom")
