package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const maxSaveAttempts = 3

type ProfileUseCase struct {
	profileRepo profile.Repository
	postRepo    post.Repository
	userRepo    user.Repository
	locker      service.OwnerLocker
	events      *eventDispatcher
	logger      logger.Logger
	now         func() time.Time
}

func NewProfileUseCase(
	profileRepo profile.Repository,
	postRepo post.Repository,
	userRepo user.Repository,
	locker service.OwnerLocker,
	publisher service.EventPublisher,
	log logger.Logger,
) *ProfileUseCase {
	if publisher == nil {
		publisher = service.NopPublisher{}
	}
	return &ProfileUseCase{
		profileRepo: profileRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		locker:      locker,
		events:      newEventDispatcher(publisher, log),
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func lockKey(ownerID uuid.UUID) string {
	return "profile:" + ownerID.String()
}

// profileNotFound is the single outcome for both absent profiles and
// malformed owner ids. Profile lookups answer 400, not 404.
func profileNotFound(identifier string) *apperror.AppError {
	err := apperror.NewNotFound("profile", identifier).WithStatus(http.StatusBadRequest)
	err.Message = "there is no profile for this user"
	return err
}

type UpsertProfileInput struct {
	OwnerID uuid.UUID
	Raw     profile.RawProfile
}

type ProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteUpsertProfile(ctx context.Context, input UpsertProfileInput) (*ProfileOutput, error) {
	if err := profile.ValidateUpsert(input.Raw); err != nil {
		return nil, apperror.NewInvalidInput("profile validation failed", err)
	}
	fields := input.Raw.Fields()

	unlock, err := uc.locker.Lock(ctx, lockKey(input.OwnerID))
	if err != nil {
		return nil, apperror.NewInternal("failed to lock profile", err)
	}
	defer unlock()

	p, err := uc.profileRepo.Upsert(context.WithoutCancel(ctx), input.OwnerID, fields)
	if err != nil {
		return nil, fmt.Errorf("upsert profile failed: %w", err)
	}

	uc.publish(service.ProfileEvent{
		EventType:      service.ProfileEventUpserted,
		OwnerID:        p.OwnerID,
		ProfileID:      p.ID,
		GithubUsername: p.GithubUsername,
	})

	return &ProfileOutput{Profile: p}, nil
}

type GetProfileInput struct {
	OwnerID uuid.UUID
}

func (uc *ProfileUseCase) ExecuteGetOwnProfile(ctx context.Context, input GetProfileInput) (*ProfileOutput, error) {
	p, err := uc.profileRepo.GetByOwner(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, profileNotFound(input.OwnerID.String())
		}
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	return &ProfileOutput{Profile: p}, nil
}

type ListProfilesOutput struct {
	Profiles []*profile.Profile
}

func (uc *ProfileUseCase) ExecuteListProfiles(ctx context.Context) (*ListProfilesOutput, error) {
	profiles, err := uc.profileRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles failed: %w", err)
	}
	return &ListProfilesOutput{Profiles: profiles}, nil
}

type GetProfileByOwnerInput struct {
	RawOwnerID string
}

func (uc *ProfileUseCase) ExecuteGetProfileByOwner(ctx context.Context, input GetProfileByOwnerInput) (*ProfileOutput, error) {
	ownerID, err := uuid.Parse(input.RawOwnerID)
	if err != nil {
		return nil, profileNotFound(input.RawOwnerID)
	}

	p, err := uc.profileRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, profileNotFound(input.RawOwnerID)
		}
		return nil, fmt.Errorf("get profile by owner failed: %w", err)
	}
	return &ProfileOutput{Profile: p}, nil
}

type DeleteProfileInput struct {
	OwnerID uuid.UUID
}

// ExecuteDeleteProfile removes the owner's posts, then the profile, then the
// user account. Every step tolerates already-removed data so a failed run
// can be retried from the top.
func (uc *ProfileUseCase) ExecuteDeleteProfile(ctx context.Context, input DeleteProfileInput) error {
	unlock, err := uc.locker.Lock(ctx, lockKey(input.OwnerID))
	if err != nil {
		return apperror.NewInternal("failed to lock profile", err)
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	log := uc.logger.With(zap.String("owner_id", input.OwnerID.String()))

	var githubUsername string
	if p, err := uc.profileRepo.GetByOwner(ctx, input.OwnerID); err == nil {
		githubUsername = p.GithubUsername
	} else if !errors.Is(err, profile.ErrProfileNotFound) {
		return fmt.Errorf("load profile before delete failed: %w", err)
	}

	if err := uc.postRepo.DeleteByOwner(ctx, input.OwnerID); err != nil {
		return fmt.Errorf("delete posts failed: %w", err)
	}
	if err := uc.profileRepo.DeleteByOwner(ctx, input.OwnerID); err != nil {
		return fmt.Errorf("delete profile failed: %w", err)
	}
	if err := uc.userRepo.Delete(ctx, input.OwnerID); err != nil {
		return fmt.Errorf("delete user failed: %w", err)
	}
	log.Info("Account removed")

	uc.publish(service.ProfileEvent{
		EventType:      service.ProfileEventDeleted,
		OwnerID:        input.OwnerID,
		GithubUsername: githubUsername,
	})
	return nil
}

type AddExperienceInput struct {
	OwnerID uuid.UUID
	Raw     profile.RawExperience
}

func (uc *ProfileUseCase) ExecuteAddExperience(ctx context.Context, input AddExperienceInput) (*ProfileOutput, error) {
	if err := profile.ValidateExperience(input.Raw); err != nil {
		return nil, apperror.NewInvalidInput("experience validation failed", err)
	}
	entry, err := input.Raw.Entry()
	if err != nil {
		return nil, apperror.NewInvalidInput("experience validation failed", err)
	}

	p, err := uc.mutate(ctx, input.OwnerID, func(p *profile.Profile) bool {
		p.PrependExperience(entry)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Profile: p}, nil
}

type RemoveEntryInput struct {
	OwnerID uuid.UUID
	EntryID string
}

func (uc *ProfileUseCase) ExecuteRemoveExperience(ctx context.Context, input RemoveEntryInput) (*ProfileOutput, error) {
	p, err := uc.mutate(ctx, input.OwnerID, func(p *profile.Profile) bool {
		id, err := uuid.Parse(input.EntryID)
		if err != nil {
			return false
		}
		return p.RemoveExperience(id)
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Profile: p}, nil
}

type AddEducationInput struct {
	OwnerID uuid.UUID
	Raw     profile.RawEducation
}

func (uc *ProfileUseCase) ExecuteAddEducation(ctx context.Context, input AddEducationInput) (*ProfileOutput, error) {
	if err := profile.ValidateEducation(input.Raw); err != nil {
		return nil, apperror.NewInvalidInput("education validation failed", err)
	}
	entry, err := input.Raw.Entry()
	if err != nil {
		return nil, apperror.NewInvalidInput("education validation failed", err)
	}

	p, err := uc.mutate(ctx, input.OwnerID, func(p *profile.Profile) bool {
		p.PrependEducation(entry)
		return true
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Profile: p}, nil
}

func (uc *ProfileUseCase) ExecuteRemoveEducation(ctx context.Context, input RemoveEntryInput) (*ProfileOutput, error) {
	p, err := uc.mutate(ctx, input.OwnerID, func(p *profile.Profile) bool {
		id, err := uuid.Parse(input.EntryID)
		if err != nil {
			return false
		}
		return p.RemoveEducation(id)
	})
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Profile: p}, nil
}

// mutate runs a read-modify-write of the owner's aggregate while holding the
// owner lock. change reports whether it modified the profile; when it did
// not, nothing is written. Version conflicts are retried on a fresh read.
func (uc *ProfileUseCase) mutate(ctx context.Context, ownerID uuid.UUID, change func(p *profile.Profile) bool) (*profile.Profile, error) {
	unlock, err := uc.locker.Lock(ctx, lockKey(ownerID))
	if err != nil {
		return nil, apperror.NewInternal("failed to lock profile", err)
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		p, err := uc.profileRepo.GetByOwner(ctx, ownerID)
		if err != nil {
			if errors.Is(err, profile.ErrProfileNotFound) {
				return nil, profileNotFound(ownerID.String())
			}
			return nil, fmt.Errorf("get profile failed: %w", err)
		}

		if !change(p) {
			return p, nil
		}
		p.UpdatedAt = uc.now()

		err = uc.profileRepo.Save(ctx, p)
		if errors.Is(err, profile.ErrVersionConflict) {
			uc.logger.Warn("Profile changed during update, retrying",
				zap.String("owner_id", ownerID.String()), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save profile failed: %w", err)
		}
		return p, nil
	}

	return nil, apperror.NewConflict("profile", "owner", ownerID.String())
}

// publish must be called while the owner lock is held so events leave in
// commit order.
func (uc *ProfileUseCase) publish(evt service.ProfileEvent) {
	uc.events.dispatch(evt)
}

// Close flushes pending profile events. The use case must not be used afterwards.
func (uc *ProfileUseCase) Close() {
	uc.events.close()
}
