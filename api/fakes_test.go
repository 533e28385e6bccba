package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"photo-mapper/model"
	"photo-mapper/storage"
)

// memoryDB mirrors the unique indexes of the Mongo store.
type memoryDB struct {
	mu     sync.Mutex
	photos map[string]model.Photo
	tags   []model.Tag
}

func newMemoryDB() *memoryDB {
	return &memoryDB{photos: map[string]model.Photo{}}
}

type photoKey struct {
	owner    string
	lon, lat float64
	takenAt  time.Time
}

func keyOf(p model.Photo) photoKey {
	return photoKey{p.OwnerID, p.Location.Coordinates[0], p.Location.Coordinates[1], p.TakenAt}
}

func (db *memoryDB) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, p := range db.photos {
		if keyOf(p) == keyOf(*photo) {
			return storage.ErrDuplicatePhoto
		}
	}
	db.photos[photo.ID] = *photo
	return nil
}

func (db *memoryDB) DeletePhoto(ctx context.Context, ownerID, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.photos[id]
	if !ok || p.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(db.photos, id)
	return nil
}

func (db *memoryDB) GetPhoto(ctx context.Context, ownerID, id string) (*model.Photo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.photos[id]
	if !ok || p.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (db *memoryDB) ListPhotos(ctx context.Context, ownerID string) ([]model.Photo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []model.Photo{}
	for _, p := range db.photos {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.After(out[j].TakenAt) })
	return out, nil
}

func (db *memoryDB) SearchPhotosByLocation(ctx context.Context, ownerID string, long, lat float64, dist int) ([]model.Photo, error) {
	return db.ListPhotos(ctx, ownerID)
}

func (db *memoryDB) GetOrCreateTags(ctx context.Context, names []string) ([]model.Tag, []string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]model.Tag, 0, len(names))
	var created []string
	for _, name := range names {
		t, inserted := db.getOrCreate(name)
		if inserted {
			created = append(created, t.Name)
		}
		out = append(out, t)
	}
	return out, created, nil
}

func (db *memoryDB) getOrCreate(name string) (model.Tag, bool) {
	for _, t := range db.tags {
		if t.NameKey == model.TagKey(name) {
			return t, false
		}
	}
	t := model.Tag{ID: primitive.NewObjectID(), Name: name, NameKey: model.TagKey(name)}
	db.tags = append(db.tags, t)
	return t, true
}

func (db *memoryDB) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.tags {
		if t.NameKey == model.TagKey(name) {
			return nil, storage.ErrDuplicateTag
		}
	}
	t, _ := db.getOrCreate(name)
	return &t, nil
}

func (db *memoryDB) ListTags(ctx context.Context) ([]model.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]model.Tag{}, db.tags...), nil
}

func (db *memoryDB) DeleteTag(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, t := range db.tags {
		if t.NameKey != model.TagKey(name) {
			continue
		}
		db.tags = append(db.tags[:i], db.tags[i+1:]...)
		for id, p := range db.photos {
			kept := []string{}
			for _, n := range p.Tags {
				if n != t.Name {
					kept = append(kept, n)
				}
			}
			p.Tags = kept
			db.photos[id] = p
		}
		return nil
	}
	return storage.ErrNotFound
}

func (db *memoryDB) RemoveUnusedTags(ctx context.Context, names []string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, name := range names {
		if db.tagged(name) {
			continue
		}
		kept := db.tags[:0]
		for _, t := range db.tags {
			if t.NameKey != model.TagKey(name) {
				kept = append(kept, t)
			}
		}
		db.tags = kept
	}
	return nil
}

func (db *memoryDB) tagged(name string) bool {
	for _, p := range db.photos {
		for _, n := range p.Tags {
			if n == name {
				return true
			}
		}
	}
	return false
}

func (db *memoryDB) count() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.photos)
}

type mockUserDB struct {
	mock.Mock
}

func (m *mockUserDB) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserDB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
