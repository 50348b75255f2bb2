package profile

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeSkills splits a comma separated list, trims every element and
// drops empty ones. Order is preserved.
func NormalizeSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Fields converts validated input into UpsertFields.
func (in RawProfile) Fields() UpsertFields {
	social := Social{}
	for _, network := range SocialNetworks {
		if v := in.Social[network]; v != "" {
			social[network] = v
		}
	}
	return UpsertFields{
		Company:        optional(in.Company),
		Website:        optional(in.Website),
		Location:       optional(in.Location),
		Bio:            optional(in.Bio),
		Status:         strings.TrimSpace(in.Status),
		GithubUsername: optional(strings.TrimSpace(in.GithubUsername)),
		Skills:         NormalizeSkills(in.Skills),
		Social:         social,
	}
}

// Entry builds an Experience with a fresh id. in must have passed ValidateExperience.
func (in RawExperience) Entry() (Experience, error) {
	from, err := ParseDate(in.From)
	if err != nil {
		return Experience{}, err
	}
	e := Experience{
		ID:          uuid.New(),
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		From:        from,
		Current:     in.Current,
		Description: in.Description,
	}
	if !blank(in.To) {
		to, err := ParseDate(in.To)
		if err != nil {
			return Experience{}, err
		}
		e.To = &to
	}
	return e, nil
}

// Entry builds an Education with a fresh id. in must have passed ValidateEducation.
func (in RawEducation) Entry() (Education, error) {
	from, err := ParseDate(in.From)
	if err != nil {
		return Education{}, err
	}
	e := Education{
		ID:           uuid.New(),
		School:       in.School,
		Degree:       in.Degree,
		FieldOfStudy: in.FieldOfStudy,
		From:         from,
		Current:      in.Current,
		Description:  in.Description,
	}
	if !blank(in.To) {
		to, err := ParseDate(in.To)
		if err != nil {
			return Education{}, err
		}
		e.To = &to
	}
	return e, nil
}
