// Package profile stores display metadata for candidates.
//
// The contract only knows a candidate's id, name and vote count. Slogans and
// portrait images are presentation details kept locally and matched by name.
// Nothing stored here affects the election itself.
package profile

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultSlogan is shown for candidates without a stored profile.
const DefaultSlogan = "Join the movement."

// Error types
var (
	ErrEmptyName  = errors.New("profile name is empty")
	ErrInvalidURL = errors.New("profile image is not an absolute http(s) URL")
)

// Profile is the display metadata for one candidate.
type Profile struct {
	Name     string `json:"name"`
	Slogan   string `json:"slogan"`
	ImageURL string `json:"image_url"`
}

// Validate checks that p can be stored.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.ImageURL != "" {
		u, err := url.Parse(p.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidURL
		}
	}
	return nil
}

// Catalog looks up profiles by candidate name.
type Catalog interface {
	Get(name string) (Profile, bool, error)
	Put(p Profile) error
	List() ([]Profile, error)
	Close() error
}

// Defaults returns the profiles every new catalog is seeded with.
func Defaults() []Profile {
	return []Profile{
		{
			Name:     "Elara Vance",
			Slogan:   "A future forged in innovation.",
			ImageURL: "https://placehold.co/400x400/1a202c/ffffff?text=EV",
		},
		{
			Name:     "Kaelen Reed",
			Slogan:   "Progress through unity.",
			ImageURL: "https://placehold.co/400x400/2d3748/ffffff?text=KR",
		},
		{
			Name:     "Seraphina Croft",
			Slogan:   "Leadership with integrity.",
			ImageURL: "https://placehold.co/400x400/4a5568/ffffff?text=SC",
		},
	}
}

// FallbackImage returns the placeholder portrait URL for name.
func FallbackImage(name string) string {
	letter := "?"
	if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name)); r != utf8.RuneError {
		letter = string(r)
	}
	return "https://placehold.co/400x400/1a202c/ffffff?text=" + url.QueryEscape(letter)
}

// Resolve returns the stored profile for name with defaults applied to missing
// fields. Lookup failures fall back to defaults.
func Resolve(c Catalog, name string) Profile {
	out := Profile{Name: name}
	if c != nil {
		if p, ok, err := c.Get(name); err == nil && ok {
			out.Slogan, out.ImageURL = p.Slogan, p.ImageURL
		}
	}
	if out.Slogan == "" {
		out.Slogan = DefaultSlogan
	}
	if out.ImageURL == "" {
		out.ImageURL = FallbackImage(name)
	}
	return out
}

// key normalizes a candidate name for lookups.
func key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
