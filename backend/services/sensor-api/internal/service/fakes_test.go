package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/repository"
)

type fakeStore struct {
	mu       sync.Mutex
	readings []models.Reading
	calls    int
	err      error
}

func (f *fakeStore) Insert(_ context.Context, reading models.Reading) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	reading.ID = time.Now().Format("150405.000000000")
	f.readings = append(f.readings, reading)
	return reading.ID, nil
}

func (f *fakeStore) InsertMany(_ context.Context, readings []models.Reading) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	f.readings = append(f.readings, readings...)
	return len(readings), nil
}

func (f *fakeStore) QueryRange(_ context.Context, equipmentID string, since time.Time) ([]models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Reading
	for _, r := range f.readings {
		if r.EquipmentID == equipmentID && !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) AverageByEquipment(_ context.Context, since time.Time) ([]models.StationAverage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	sums := map[string][]float64{}
	for _, r := range f.readings {
		if !r.Timestamp.Before(since) {
			sums[r.EquipmentID] = append(sums[r.EquipmentID], r.Value)
		}
	}
	var out []models.StationAverage
	for id, values := range sums {
		out = append(out, models.StationAverage{EquipmentID: id, Average: *Mean(values)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EquipmentID < out[j].EquipmentID })
	return out, nil
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	entries map[string][]models.StationAverage
	getErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]models.StationAverage{}}
}

func (c *fakeCache) Get(_ context.Context, periodToken string) ([]models.StationAverage, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[periodToken]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, periodToken string, averages []models.StationAverage) error {
	c.sets++
	c.entries[periodToken] = averages
	return nil
}

type fakePublisher struct {
	published []models.Reading
}

func (p *fakePublisher) Publish(reading models.Reading) {
	p.published = append(p.published, reading)
}

type fakeRecorder struct {
	ingested map[string]int
	rejected int
}

func (r *fakeRecorder) ReadingsIngested(source string, n int) {
	if r.ingested == nil {
		r.ingested = map[string]int{}
	}
	r.ingested[source] += n
}

func (r *fakeRecorder) UploadRejected() {
	r.rejected++
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[user.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	user.ID = user.Username + "-id"
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
