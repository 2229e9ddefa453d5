package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

type SocialLinks struct {
	Website   string `bson:"website,omitempty" json:"website,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
}

type Artisan struct {
	ID          string      `bson:"_id" json:"id"`
	Name        string      `bson:"name" json:"name"`
	Slug        string      `bson:"slug" json:"slug"`
	Bio         string      `bson:"bio,omitempty" json:"bio,omitempty"`
	Story       string      `bson:"story,omitempty" json:"story,omitempty"`
	Location    string      `bson:"location,omitempty" json:"location,omitempty"`
	Specialty   string      `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Avatar      string      `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Cover       string      `bson:"cover,omitempty" json:"cover,omitempty"`
	SocialLinks SocialLinks `bson:"social_links" json:"social_links"`
	// UserID links the storefront to a logged-in owner; empty for unclaimed storefronts.
	UserID    string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Featured  bool      `bson:"featured" json:"featured"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ArtisanPatch struct {
	Bio         *string      `json:"bio,omitempty"`
	Story       *string      `json:"story,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Specialty   *string      `json:"specialty,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Cover       *string      `json:"cover,omitempty"`
	SocialLinks *SocialLinks `json:"social_links,omitempty"`
}

func (p ArtisanPatch) Apply(a *Artisan) {
	if p.Bio != nil {
		a.Bio = *p.Bio
	}
	if p.Story != nil {
		a.Story = *p.Story
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Specialty != nil {
		a.Specialty = *p.Specialty
	}
	if p.Avatar != nil {
		a.Avatar = *p.Avatar
	}
	if p.Cover != nil {
		a.Cover = *p.Cover
	}
	if p.SocialLinks != nil {
		a.SocialLinks = *p.SocialLinks
	}
}

// Slugify turns a display name into the base of a public URL slug,
// e.g. "Rina's Clay Studio" -> "rinas-clay-studio".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "artisan"
	}
	return slug
}

// SlugCandidate returns the n-th candidate for a base slug: base, base-2, base-3, ...
func SlugCandidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
