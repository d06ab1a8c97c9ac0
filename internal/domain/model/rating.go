package model

import "strings"

// Rating is the age rating of a video.
// The zero value means the rating is absent.
type Rating string

const (
	RatingER    Rating = "ER"
	RatingL     Rating = "L"
	RatingAge10 Rating = "10"
	RatingAge12 Rating = "12"
	RatingAge14 Rating = "14"
	RatingAge16 Rating = "16"
	RatingAge18 Rating = "18"
)

var ratings = []Rating{RatingER, RatingL, RatingAge10, RatingAge12, RatingAge14, RatingAge16, RatingAge18}

// ParseRating resolves a rating by its external name, ignoring case.
// It returns false for unknown input.
func ParseRating(s string) (Rating, bool) {
	s = strings.TrimSpace(s)
	for _, r := range ratings {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

func (r Rating) IsValid() bool {
	for _, known := range ratings {
		if r == known {
			return true
		}
	}
	return false
}

func (r Rating) String() string {
	return string(r)
}
