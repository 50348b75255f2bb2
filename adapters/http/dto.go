package http

import (
	"time"

	"github.com/khoahotran/devconnector/internal/domain/profile"
)

// Profile DTOs

type UpsertProfileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Bio            string `json:"bio"`
	Status         string `json:"status"`
	GithubUsername string `json:"githubusername"`
	Skills         string `json:"skills"`
	Youtube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	Linkedin       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}

func (r *UpsertProfileRequest) ToRaw() profile.RawProfile {
	return profile.RawProfile{
		Company:        r.Company,
		Website:        r.Website,
		Location:       r.Location,
		Bio:            r.Bio,
		Status:         r.Status,
		GithubUsername: r.GithubUsername,
		Skills:         r.Skills,
		Social: map[profile.SocialNetwork]string{
			profile.SocialYoutube:   r.Youtube,
			profile.SocialTwitter:   r.Twitter,
			profile.SocialFacebook:  r.Facebook,
			profile.SocialLinkedin:  r.Linkedin,
			profile.SocialInstagram: r.Instagram,
		},
	}
}

type AddExperienceRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	From        string `json:"from"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

func (r *AddExperienceRequest) ToRaw() profile.RawExperience {
	return profile.RawExperience(*r)
}

type AddEducationRequest struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func (r *AddEducationRequest) ToRaw() profile.RawEducation {
	return profile.RawEducation(*r)
}

type OwnerDTO struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type ExperienceDTO struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

type EducationDTO struct {
	ID           string     `json:"_id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// ProfileDTO keeps the owner under "user": the joined summary when
// available, otherwise the bare owner id.
type ProfileDTO struct {
	ID             string            `json:"_id"`
	User           any               `json:"user"`
	Company        string            `json:"company,omitempty"`
	Website        string            `json:"website,omitempty"`
	Location       string            `json:"location,omitempty"`
	Bio            string            `json:"bio,omitempty"`
	Status         string            `json:"status"`
	GithubUsername string            `json:"githubusername,omitempty"`
	Skills         []string          `json:"skills"`
	Social         map[string]string `json:"social"`
	Experience     []ExperienceDTO   `json:"experience"`
	Education      []EducationDTO    `json:"education"`
	CreatedAt      time.Time         `json:"date"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func ToProfileDTO(p *profile.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:             p.ID.String(),
		User:           p.OwnerID.String(),
		Company:        p.Company,
		Website:        p.Website,
		Location:       p.Location,
		Bio:            p.Bio,
		Status:         p.Status,
		GithubUsername: p.GithubUsername,
		Skills:         append([]string{}, p.Skills...),
		Social:         make(map[string]string, len(p.Social)),
		Experience:     make([]ExperienceDTO, len(p.Experience)),
		Education:      make([]EducationDTO, len(p.Education)),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Owner != nil {
		dto.User = OwnerDTO{ID: p.Owner.ID.String(), Name: p.Owner.Name, Avatar: p.Owner.Avatar}
	}
	for k, v := range p.Social {
		dto.Social[string(k)] = v
	}
	for i, e := range p.Experience {
		dto.Experience[i] = ExperienceDTO{
			ID:          e.ID.String(),
			Title:       e.Title,
			Company:     e.Company,
			Location:    e.Location,
			From:        e.From,
			To:          e.To,
			Current:     e.Current,
			Description: e.Description,
		}
	}
	for i, e := range p.Education {
		dto.Education[i] = EducationDTO{
			ID:           e.ID.String(),
			School:       e.School,
			Degree:       e.Degree,
			FieldOfStudy: e.FieldOfStudy,
			From:         e.From,
			To:           e.To,
			Current:      e.Current,
			Description:  e.Description,
		}
	}
	return dto
}

func ToProfileDTOs(profiles []*profile.Profile) []ProfileDTO {
	dtos := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = ToProfileDTO(p)
	}
	return dtos
}
