package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/templui/lanchat/internal/model"
)

// ProfileSource lists stored profiles.
type ProfileSource interface {
	Profiles(ctx context.Context) ([]*model.Profile, error)
	UserProfile(ctx context.Context, uid string) (*model.Profile, error)
}

// DirectoryQuery filters the community directory. Zero fields match
// everything.
type DirectoryQuery struct {
	Text       string // name, country or city
	Language   string // native or learning language code
	OnlineOnly bool
	ExcludeID  string // the caller
}

// DirectoryService is the community listing of other learners.
type DirectoryService struct {
	profiles ProfileSource
}

func NewDirectoryService(profiles ProfileSource) *DirectoryService {
	return &DirectoryService{profiles: profiles}
}

func (s *DirectoryService) Search(ctx context.Context, q DirectoryQuery) ([]*model.Profile, error) {
	all, err := s.profiles.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	// A Caser holds state and is not shared between calls.
	fold := cases.Fold()
	text := fold.String(strings.TrimSpace(q.Text))

	result := make([]*model.Profile, 0, len(all))
	for _, p := range all {
		if p.ID == q.ExcludeID {
			continue
		}
		if text != "" && !matchesText(fold, p, text) {
			continue
		}
		if q.Language != "" && !p.Speaks(q.Language) {
			continue
		}
		if q.OnlineOnly && !p.IsOnline {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func matchesText(fold cases.Caser, p *model.Profile, text string) bool {
	for _, field := range []string{p.Name, p.Country, p.City} {
		if strings.Contains(fold.String(field), text) {
			return true
		}
	}
	return false
}

// NativeSpeakers narrows users to native speakers of a language the caller
// is learning. A caller who learns nothing gets none.
func NativeSpeakers(caller *model.Profile, users []*model.Profile) []*model.Profile {
	if caller == nil || len(caller.LearningLanguages) == 0 {
		return nil
	}

	var result []*model.Profile
	for _, u := range users {
		if slices.ContainsFunc(caller.LearningLanguages, func(l model.Language) bool {
			return l.Code == u.NativeLanguage.Code
		}) {
			result = append(result, u)
		}
	}
	return result
}

// Profile returns one directory entry.
func (s *DirectoryService) Profile(ctx context.Context, uid string) (*model.Profile, error) {
	return s.profiles.UserProfile(ctx, uid)
}
