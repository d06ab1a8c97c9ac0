package model

import (
	"strings"

	"github.com/google/uuid"
)

// VideoID identifies a Video aggregate.
type VideoID string

// CategoryID identifies a Category aggregate.
type CategoryID string

// GenreID identifies a Genre aggregate.
type GenreID string

// CastMemberID identifies a CastMember aggregate.
type CastMemberID string

// identifier is the set of catalog ID types.
type identifier interface {
	~string
}

// newToken returns a random lower-case identifier without dashes.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func NewVideoID() VideoID { return VideoID(newToken()) }

func NewCategoryID() CategoryID { return CategoryID(newToken()) }

func NewGenreID() GenreID { return GenreID(newToken()) }

func NewCastMemberID() CastMemberID { return CastMemberID(newToken()) }

// VideoIDFrom derives a VideoID from an existing value.
func VideoIDFrom(s string) VideoID { return VideoID(strings.ToLower(s)) }

func CategoryIDFrom(s string) CategoryID { return CategoryID(strings.ToLower(s)) }

func GenreIDFrom(s string) GenreID { return GenreID(strings.ToLower(s)) }

func CastMemberIDFrom(s string) CastMemberID { return CastMemberID(strings.ToLower(s)) }

func (id VideoID) String() string      { return string(id) }
func (id CategoryID) String() string   { return string(id) }
func (id GenreID) String() string      { return string(id) }
func (id CastMemberID) String() string { return string(id) }

// IDsFrom converts raw strings into identifiers, lower-casing and skipping blanks.
func IDsFrom[T identifier](values []string) []T {
	out := make([]T, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, T(strings.ToLower(v)))
	}
	return out
}

// IDStrings converts identifiers into plain strings, preserving order.
func IDStrings[T identifier](ids []T) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

// IDSet is an insertion-ordered set of identifiers.
type IDSet[T identifier] struct {
	order []T
	index map[T]struct{}
}

// NewIDSet builds a set from the given ids, dropping duplicates.
func NewIDSet[T identifier](ids ...T) IDSet[T] {
	s := IDSet[T]{index: make(map[T]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id if not already present.
func (s *IDSet[T]) Add(id T) {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s IDSet[T]) Contains(id T) bool {
	_, ok := s.index[id]
	return ok
}

func (s IDSet[T]) Len() int {
	return len(s.order)
}

func (s IDSet[T]) IsEmpty() bool {
	return len(s.order) == 0
}

// Values returns a copy of the members in insertion order.
func (s IDSet[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

// Intersects reports whether s and other share at least one member.
func (s IDSet[T]) Intersects(other IDSet[T]) bool {
	small, large := s, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for _, id := range small.order {
		if large.Contains(id) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the set.
func (s IDSet[T]) Clone() IDSet[T] {
	return NewIDSet(s.order...)
}
