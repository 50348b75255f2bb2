package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type SocialNetwork string

const (
	SocialYoutube   SocialNetwork = "youtube"
	SocialTwitter   SocialNetwork = "twitter"
	SocialFacebook  SocialNetwork = "facebook"
	SocialLinkedin  SocialNetwork = "linkedin"
	SocialInstagram SocialNetwork = "instagram"
)

// SocialNetworks lists the accepted social keys in their canonical order.
var SocialNetworks = []SocialNetwork{SocialYoutube, SocialTwitter, SocialFacebook, SocialLinkedin, SocialInstagram}

// Social only holds networks with a non-empty URL.
type Social map[SocialNetwork]string

type OwnerSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

type Experience struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to"`
	Current     bool       `json:"current"`
	Description string     `json:"description"`
}

type Education struct {
	ID           uuid.UUID  `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to"`
	Current      bool       `json:"current"`
	Description  string     `json:"description"`
}

type Profile struct {
	ID             uuid.UUID     `json:"id"`
	OwnerID        uuid.UUID     `json:"owner_id"`
	Owner          *OwnerSummary `json:"user,omitempty"`
	Company        string        `json:"company"`
	Website        string        `json:"website"`
	Location       string        `json:"location"`
	Bio            string        `json:"bio"`
	Status         string        `json:"status"`
	GithubUsername string        `json:"githubusername"`
	Skills         []string      `json:"skills"`
	Social         Social        `json:"social"`
	Experience     []Experience  `json:"experience"`
	Education      []Education   `json:"education"`
	Version        int64         `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// UpsertFields carries the scalar and derived fields written by an upsert.
// Nil scalar pointers leave the stored value untouched. Skills and Social
// are always replaced.
type UpsertFields struct {
	Company        *string
	Website        *string
	Location       *string
	Bio            *string
	Status         string
	GithubUsername *string
	Skills         []string
	Social         Social
}

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrVersionConflict = errors.New("profile version conflict")
)

// New builds a fresh aggregate for owner from f.
func New(ownerID uuid.UUID, f UpsertFields, now time.Time) *Profile {
	p := &Profile{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Experience: []Experience{},
		Education:  []Education{},
		CreatedAt:  now,
	}
	p.Apply(f, now)
	return p
}

// Apply overwrites the fields present in f. Sub-collections are never touched.
func (p *Profile) Apply(f UpsertFields, now time.Time) {
	if f.Company != nil {
		p.Company = *f.Company
	}
	if f.Website != nil {
		p.Website = *f.Website
	}
	if f.Location != nil {
		p.Location = *f.Location
	}
	if f.Bio != nil {
		p.Bio = *f.Bio
	}
	if f.GithubUsername != nil {
		p.GithubUsername = *f.GithubUsername
	}
	p.Status = f.Status
	p.Skills = append([]string(nil), f.Skills...)
	p.Social = Social{}
	for k, v := range f.Social {
		if v != "" {
			p.Social[k] = v
		}
	}
	p.UpdatedAt = now
}

func (p *Profile) PrependExperience(e Experience) {
	p.Experience = append([]Experience{e}, p.Experience...)
}

// RemoveExperience drops the entry with id and reports whether one matched.
// A miss leaves the list unchanged.
func (p *Profile) RemoveExperience(id uuid.UUID) bool {
	for i, e := range p.Experience {
		if e.ID == id {
			p.Experience = append(p.Experience[:i:i], p.Experience[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Profile) PrependEducation(e Education) {
	p.Education = append([]Education{e}, p.Education...)
}

func (p *Profile) RemoveEducation(id uuid.UUID) bool {
	for i, e := range p.Education {
		if e.ID == id {
			p.Education = append(p.Education[:i:i], p.Education[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never share slices with callers.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Owner != nil {
		o := *p.Owner
		c.Owner = &o
	}
	c.Skills = append([]string(nil), p.Skills...)
	c.Social = make(Social, len(p.Social))
	for k, v := range p.Social {
		c.Social[k] = v
	}
	c.Experience = append([]Experience{}, p.Experience...)
	c.Education = append([]Education{}, p.Education...)
	return &c
}

type Repository interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	ListAll(ctx context.Context) ([]*Profile, error)
	Upsert(ctx context.Context, ownerID uuid.UUID, f UpsertFields) (*Profile, error)
	// Save writes the whole aggregate if the stored version still equals
	// p.Version, then bumps p.Version. Otherwise it returns ErrVersionConflict.
	Save(ctx context.Context, p *Profile) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
}
