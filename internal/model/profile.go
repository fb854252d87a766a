package model

import (
	"slices"
	"time"
)

// Profile is the denormalized user-facing record shown across the app and
// cached inside the persisted session snapshot.
type Profile struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Avatar            string     `json:"avatar"`
	Photos            []string   `json:"photos"`
	Bio               string     `json:"bio"`
	Country           string     `json:"country"`
	City              string     `json:"city"`
	Age               int        `json:"age"`
	NativeLanguage    Language   `json:"nativeLanguage"`
	LearningLanguages []Language `json:"learningLanguages"`
	IsOnline          bool       `json:"isOnline"`
	LastSeen          time.Time  `json:"lastSeen"`
	IsVerified        bool       `json:"isVerified"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// NewProfile returns the default profile for a freshly created identity:
// no photos or bio, English as native language, nothing being learned.
func NewProfile(uid, email, name, avatar string, now time.Time) *Profile {
	return &Profile{
		ID:                uid,
		Email:             email,
		Name:              name,
		Avatar:            avatar,
		Photos:            []string{},
		NativeLanguage:    English,
		LearningLanguages: []Language{},
		IsOnline:          true,
		LastSeen:          now,
		CreatedAt:         now,
	}
}

// Clone returns a deep copy so callers can never mutate cached state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.Photos = slices.Clone(p.Photos)
	c.LearningLanguages = slices.Clone(p.LearningLanguages)
	return &c
}

// Speaks reports whether code is the native language or one being learned.
func (p *Profile) Speaks(code string) bool {
	if p.NativeLanguage.Code == code {
		return true
	}
	for _, l := range p.LearningLanguages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// ProfileUpdate is a partial profile. Nil fields are left untouched; non-nil
// fields are applied even when they hold an empty value.
type ProfileUpdate struct {
	Name              *string     `json:"name,omitempty"`
	Avatar            *string     `json:"avatar,omitempty"`
	Photos            *[]string   `json:"photos,omitempty"`
	Bio               *string     `json:"bio,omitempty"`
	Country           *string     `json:"country,omitempty"`
	City              *string     `json:"city,omitempty"`
	Age               *int        `json:"age,omitempty"`
	NativeLanguage    *Language   `json:"nativeLanguage,omitempty"`
	LearningLanguages *[]Language `json:"learningLanguages,omitempty"`
}

// Apply shallow-merges the present fields into p.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.Photos != nil {
		p.Photos = slices.Clone(*u.Photos)
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.NativeLanguage != nil {
		p.NativeLanguage = *u.NativeLanguage
	}
	if u.LearningLanguages != nil {
		p.LearningLanguages = slices.Clone(*u.LearningLanguages)
	}
}

// Document returns the store fields touched by this update.
func (u ProfileUpdate) Document() Document {
	doc := Document{}
	if u.Name != nil {
		doc[FieldDisplayName] = *u.Name
	}
	if u.Avatar != nil {
		doc[FieldPhotoURL] = *u.Avatar
	}
	if u.Photos != nil {
		doc[FieldPhotos] = slices.Clone(*u.Photos)
	}
	if u.Bio != nil {
		doc[FieldBio] = *u.Bio
	}
	if u.Country != nil {
		doc[FieldCountry] = *u.Country
	}
	if u.City != nil {
		doc[FieldCity] = *u.City
	}
	if u.Age != nil {
		doc[FieldAge] = *u.Age
	}
	if u.NativeLanguage != nil {
		doc[FieldNativeLanguage] = *u.NativeLanguage
	}
	if u.LearningLanguages != nil {
		doc[FieldLearningLanguages] = slices.Clone(*u.LearningLanguages)
	}
	return doc
}

// Ptr returns a pointer to v, handy for building a ProfileUpdate.
func Ptr[T any](v T) *T {
	return &v
}
