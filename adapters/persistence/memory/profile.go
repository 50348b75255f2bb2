package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
)

// ProfileStore keeps profiles in insertion order. Owner name and avatar are
// joined from users on every read.
type ProfileStore struct {
	users    user.Repository
	profiles map[uuid.UUID]*profile.Profile
	order    []uuid.UUID
	mutex    sync.RWMutex
	now      func() time.Time
}

func NewProfileStore(users user.Repository) *ProfileStore {
	return &ProfileStore{
		users:    users,
		profiles: map[uuid.UUID]*profile.Profile{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ profile.Repository = (*ProfileStore)(nil)

func (s *ProfileStore) withOwner(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	out := p.Clone()
	out.Owner = nil
	if s.users == nil {
		return out, nil
	}
	u, err := s.users.FindByID(ctx, p.OwnerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return out, nil
		}
		return nil, err
	}
	out.Owner = &profile.OwnerSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	return out, nil
}

func (s *ProfileStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*profile.Profile, error) {
	s.mutex.RLock()
	p, ok := s.profiles[ownerID]
	if ok {
		p = p.Clone()
	}
	s.mutex.RUnlock()

	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return s.withOwner(ctx, p)
}

func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	s.mutex.RLock()
	var found *profile.Profile
	for _, p := range s.profiles {
		if p.ID == id {
			found = p.Clone()
			break
		}
	}
	s.mutex.RUnlock()

	if found == nil {
		return nil, profile.ErrProfileNotFound
	}
	return s.withOwner(ctx, found)
}

func (s *ProfileStore) ListAll(ctx context.Context) ([]*profile.Profile, error) {
	s.mutex.RLock()
	snapshot := make([]*profile.Profile, 0, len(s.order))
	for _, owner := range s.order {
		snapshot = append(snapshot, s.profiles[owner].Clone())
	}
	s.mutex.RUnlock()

	out := make([]*profile.Profile, 0, len(snapshot))
	for _, p := range snapshot {
		joined, err := s.withOwner(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, joined)
	}
	return out, nil
}

func (s *ProfileStore) Upsert(ctx context.Context, ownerID uuid.UUID, f profile.UpsertFields) (*profile.Profile, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	p, ok := s.profiles[ownerID]
	if !ok {
		p = profile.New(ownerID, f, now)
		s.profiles[ownerID] = p
		s.order = append(s.order, ownerID)
	} else {
		p.Apply(f, now)
	}
	p.Version++
	return p.Clone(), nil
}

func (s *ProfileStore) Save(ctx context.Context, p *profile.Profile) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, ok := s.profiles[p.OwnerID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	if current.Version != p.Version {
		return profile.ErrVersionConflict
	}
	p.Version++
	stored := p.Clone()
	stored.Owner = nil
	s.profiles[p.OwnerID] = stored
	return nil
}

func (s *ProfileStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.profiles[ownerID]; !ok {
		return nil
	}
	delete(s.profiles, ownerID)
	for i, owner := range s.order {
		if owner == ownerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
