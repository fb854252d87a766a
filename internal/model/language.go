package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type LanguageLevel string

const (
	LevelBeginner     LanguageLevel = "beginner"
	LevelIntermediate LanguageLevel = "intermediate"
	LevelAdvanced     LanguageLevel = "advanced"
	LevelNative       LanguageLevel = "native"
)

var ErrInvalidLanguage = errors.New("invalid language code")

// Language is a language tag as shown on a profile, with the speaker's level.
type Language struct {
	Code  string        `json:"code"`
	Name  string        `json:"name"`
	Flag  string        `json:"flag"`
	Level LanguageLevel `json:"level,omitempty"`
}

// English is the native language every new profile starts with.
var English = Language{Code: "en", Name: "English", Flag: "🇺🇸", Level: LevelNative}

// ParseLevel validates a proficiency level; the empty string is allowed.
func ParseLevel(s string) (LanguageLevel, error) {
	switch l := LanguageLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "", LevelBeginner, LevelIntermediate, LevelAdvanced, LevelNative:
		return l, nil
	default:
		return "", fmt.Errorf("invalid language level %q", s)
	}
}

// NormalizeLanguageCode canonicalizes a BCP 47 tag ("EN-us" -> "en-US").
func NormalizeLanguageCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrInvalidLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}
	return tag.String(), nil
}

// NewLanguage builds a Language from a tag, deriving its English name and a
// flag for the most likely region.
func NewLanguage(code string, level LanguageLevel) (Language, error) {
	normalized, err := NormalizeLanguageCode(code)
	if err != nil {
		return Language{}, err
	}
	tag := language.MustParse(normalized)
	base, _ := tag.Base()

	return Language{
		Code:  base.String(),
		Name:  display.English.Languages().Name(base),
		Flag:  flag(tag),
		Level: level,
	}, nil
}

// flag renders the region of tag as a pair of regional indicator symbols.
func flag(tag language.Tag) string {
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	iso := region.String()
	if len(iso) != 2 || iso[0] < 'A' || iso[0] > 'Z' || iso[1] < 'A' || iso[1] > 'Z' {
		return ""
	}
	const indicatorA = 0x1F1E6
	return string([]rune{rune(indicatorA + int(iso[0]-'A')), rune(indicatorA + int(iso[1]-'A'))})
}
