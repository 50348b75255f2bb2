package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khoahotran/devconnector/internal/domain/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
)

type experienceDoc struct {
	ID          string     `bson:"id"`
	Title       string     `bson:"title"`
	Company     string     `bson:"company"`
	Location    string     `bson:"location"`
	From        time.Time  `bson:"from"`
	To          *time.Time `bson:"to,omitempty"`
	Current     bool       `bson:"current"`
	Description string     `bson:"description"`
}

type educationDoc struct {
	ID           string     `bson:"id"`
	School       string     `bson:"school"`
	Degree       string     `bson:"degree"`
	FieldOfStudy string     `bson:"fieldofstudy"`
	From         time.Time  `bson:"from"`
	To           *time.Time `bson:"to,omitempty"`
	Current      bool       `bson:"current"`
	Description  string     `bson:"description"`
}

type profileDoc struct {
	ID             string            `bson:"_id"`
	OwnerID        string            `bson:"owner_id"`
	Company        string            `bson:"company"`
	Website        string            `bson:"website"`
	Location       string            `bson:"location"`
	Bio            string            `bson:"bio"`
	Status         string            `bson:"status"`
	GithubUsername string            `bson:"githubusername"`
	Skills         []string          `bson:"skills"`
	Social         map[string]string `bson:"social"`
	Experience     []experienceDoc   `bson:"experience"`
	Education      []educationDoc    `bson:"education"`
	Version        int64             `bson:"version"`
	CreatedAt      time.Time         `bson:"created_at"`
	UpdatedAt      time.Time         `bson:"updated_at"`
	// Filled by the $lookup stage.
	Owner []userDoc `bson:"owner,omitempty"`
}

type profileRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func NewProfileRepo(db *mongo.Database) profile.Repository {
	return &profileRepo{
		col: db.Collection(profilesCollection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func socialToDoc(s profile.Social) map[string]string {
	m := make(map[string]string, len(s))
	for k, v := range s {
		m[string(k)] = v
	}
	return m
}

func (d *profileDoc) toDomain() (*profile.Profile, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("profile id %q: %w", d.ID, err)
	}
	ownerID, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("profile owner id %q: %w", d.OwnerID, err)
	}

	p := &profile.Profile{
		ID:             id,
		OwnerID:        ownerID,
		Company:        d.Company,
		Website:        d.Website,
		Location:       d.Location,
		Bio:            d.Bio,
		Status:         d.Status,
		GithubUsername: d.GithubUsername,
		Skills:         append([]string{}, d.Skills...),
		Social:         profile.Social{},
		Experience:     make([]profile.Experience, 0, len(d.Experience)),
		Education:      make([]profile.Education, 0, len(d.Education)),
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for k, v := range d.Social {
		p.Social[profile.SocialNetwork(k)] = v
	}
	for _, e := range d.Experience {
		entryID, _ := uuid.Parse(e.ID)
		p.Experience = append(p.Experience, profile.Experience{
			ID: entryID, Title: e.Title, Company: e.Company, Location: e.Location,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		})
	}
	for _, e := range d.Education {
		entryID, _ := uuid.Parse(e.ID)
		p.Education = append(p.Education, profile.Education{
			ID: entryID, School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		})
	}
	if len(d.Owner) > 0 {
		p.Owner = &profile.OwnerSummary{ID: ownerID, Name: d.Owner[0].Name, Avatar: d.Owner[0].Avatar}
	}
	return p, nil
}

func experienceDocs(entries []profile.Experience) []experienceDoc {
	docs := make([]experienceDoc, len(entries))
	for i, e := range entries {
		docs[i] = experienceDoc{
			ID: e.ID.String(), Title: e.Title, Company: e.Company, Location: e.Location,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		}
	}
	return docs
}

func educationDocs(entries []profile.Education) []educationDoc {
	docs := make([]educationDoc, len(entries))
	for i, e := range entries {
		docs[i] = educationDoc{
			ID: e.ID.String(), School: e.School, Degree: e.Degree, FieldOfStudy: e.FieldOfStudy,
			From: e.From, To: e.To, Current: e.Current, Description: e.Description,
		}
	}
	return docs
}

func (r *profileRepo) find(ctx context.Context, match bson.M) ([]*profile.Profile, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "owner_id",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperror.NewInternal("failed to query profiles", err)
	}
	var docs []profileDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperror.NewInternal("failed to decode profiles", err)
	}

	profiles := make([]*profile.Profile, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, apperror.NewInternal("corrupt profile document", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r *profileRepo) findOne(ctx context.Context, match bson.M) (*profile.Profile, error) {
	profiles, err := r.find(ctx, match)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, profile.ErrProfileNotFound
	}
	return profiles[0], nil
}

func (r *profileRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*profile.Profile, error) {
	return r.findOne(ctx, bson.M{"owner_id": ownerID.String()})
}

func (r *profileRepo) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *profileRepo) ListAll(ctx context.Context) ([]*profile.Profile, error) {
	return r.find(ctx, bson.M{})
}

func (r *profileRepo) Upsert(ctx context.Context, ownerID uuid.UUID, f profile.UpsertFields) (*profile.Profile, error) {
	now := r.now()
	set := bson.M{
		"status":     f.Status,
		"skills":     append([]string{}, f.Skills...),
		"social":     socialToDoc(f.Social),
		"updated_at": now,
	}
	// Absent scalars are left alone on update and defaulted on insert.
	setOnInsert := bson.M{
		"_id":        uuid.New().String(),
		"experience": []experienceDoc{},
		"education":  []educationDoc{},
		"created_at": now,
	}
	optionalFields := []struct {
		key   string
		value *string
	}{
		{"company", f.Company},
		{"website", f.Website},
		{"location", f.Location},
		{"bio", f.Bio},
		{"githubusername", f.GithubUsername},
	}
	for _, of := range optionalFields {
		if of.value != nil {
			set[of.key] = *of.value
		} else {
			setOnInsert[of.key] = ""
		}
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": setOnInsert,
		"$inc":         bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var d profileDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"owner_id": ownerID.String()}, update, opts).Decode(&d)
	if err != nil {
		return nil, apperror.NewInternal("failed to upsert profile", err)
	}
	p, err := d.toDomain()
	if err != nil {
		return nil, apperror.NewInternal("corrupt profile document", err)
	}
	return p, nil
}

func (r *profileRepo) Save(ctx context.Context, p *profile.Profile) error {
	filter := bson.M{"owner_id": p.OwnerID.String(), "version": p.Version}
	update := bson.M{
		"$set": bson.M{
			"company":        p.Company,
			"website":        p.Website,
			"location":       p.Location,
			"bio":            p.Bio,
			"status":         p.Status,
			"githubusername": p.GithubUsername,
			"skills":         p.Skills,
			"social":         socialToDoc(p.Social),
			"experience":     experienceDocs(p.Experience),
			"education":      educationDocs(p.Education),
			"updated_at":     p.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperror.NewInternal("failed to save profile", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"owner_id": p.OwnerID.String()})
		if err != nil {
			return apperror.NewInternal("failed to check profile existence", err)
		}
		if n == 0 {
			return profile.ErrProfileNotFound
		}
		return profile.ErrVersionConflict
	}
	p.Version++
	return nil
}

func (r *profileRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"owner_id": ownerID.String()})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.NewInternal("failed to delete profile", err)
	}
	return nil
}
