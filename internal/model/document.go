package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Field names of a profile document in the account & profile store.
const (
	FieldUID               = "uid"
	FieldEmail             = "email"
	FieldDisplayName       = "displayName"
	FieldPhotoURL          = "photoURL"
	FieldIsOnline          = "isOnline"
	FieldLastSeen          = "lastSeen"
	FieldBio               = "bio"
	FieldNativeLanguage    = "nativeLanguage"
	FieldLearningLanguages = "learningLanguages"
	FieldCountry           = "country"
	FieldCity              = "city"
	FieldAge               = "age"
	FieldIsVerified        = "isVerified"
	FieldPhotos            = "photos"
	FieldCreatedAt         = "createdAt"
)

// Document is a schemaless profile document keyed by field name.
type Document map[string]any

type serverTimestamp struct{}

func (serverTimestamp) String() string { return "ServerTimestamp" }

// ServerTimestamp is a sentinel field value the store replaces with its own
// clock when the document is written.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Resolve returns a copy of d with every ServerTimestamp replaced by now.
func (d Document) Resolve(now time.Time) Document {
	out := make(Document, len(d))
	for k, v := range d {
		if IsServerTimestamp(v) {
			v = now
		}
		out[k] = v
	}
	return out
}

// Document returns the full store representation of the profile. The
// creation time is left to the store, which stamps it on first write.
func (p *Profile) Document() Document {
	return Document{
		FieldUID:               p.ID,
		FieldEmail:             p.Email,
		FieldDisplayName:       p.Name,
		FieldPhotoURL:          p.Avatar,
		FieldIsOnline:          p.IsOnline,
		FieldLastSeen:          ServerTimestamp,
		FieldBio:               p.Bio,
		FieldNativeLanguage:    p.NativeLanguage,
		FieldLearningLanguages: p.LearningLanguages,
		FieldCountry:           p.Country,
		FieldCity:              p.City,
		FieldAge:               p.Age,
		FieldIsVerified:        p.IsVerified,
		FieldPhotos:            p.Photos,
	}
}

// PresenceDocument marks a profile online or offline as of the server clock.
func PresenceDocument(online bool) Document {
	return Document{
		FieldIsOnline: online,
		FieldLastSeen: ServerTimestamp,
	}
}

type profileDocument struct {
	UID               string     `json:"uid"`
	Email             string     `json:"email"`
	DisplayName       string     `json:"displayName"`
	PhotoURL          string     `json:"photoURL"`
	IsOnline          bool       `json:"isOnline"`
	LastSeen          *time.Time `json:"lastSeen"`
	Bio               string     `json:"bio"`
	NativeLanguage    *Language  `json:"nativeLanguage"`
	LearningLanguages []Language `json:"learningLanguages"`
	Country           string     `json:"country"`
	City              string     `json:"city"`
	Age               int        `json:"age"`
	IsVerified        bool       `json:"isVerified"`
	Photos            []string   `json:"photos"`
	CreatedAt         *time.Time `json:"createdAt"`
}

// ProfileFromDocument hydrates a Profile from a stored document, filling
// missing fields with the same defaults a new profile gets.
func ProfileFromDocument(id string, doc Document, now time.Time) (*Profile, error) {
	raw, err := json.Marshal(doc.Resolve(now))
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile document: %w", err)
	}

	var d profileDocument
	err = json.Unmarshal(raw, &d)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile document: %w", err)
	}

	p := NewProfile(id, d.Email, d.DisplayName, d.PhotoURL, now)
	p.IsOnline = d.IsOnline
	p.Bio = d.Bio
	p.Country = d.Country
	p.City = d.City
	p.Age = d.Age
	p.IsVerified = d.IsVerified
	if d.LastSeen != nil {
		p.LastSeen = *d.LastSeen
	}
	if d.CreatedAt != nil {
		p.CreatedAt = *d.CreatedAt
	}
	if d.NativeLanguage != nil && d.NativeLanguage.Code != "" {
		p.NativeLanguage = *d.NativeLanguage
	}
	if d.LearningLanguages != nil {
		p.LearningLanguages = d.LearningLanguages
	}
	if d.Photos != nil {
		p.Photos = d.Photos
	}
	return p, nil
}
