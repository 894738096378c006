// Package store persists per-visitor state: the custom university list and
// the last selected domain.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"collegedecision/internal/model"
)

// ErrNotFound is returned by Load when nothing is stored for an owner.
var ErrNotFound = errors.New("state not found")

// ErrInvalidOwner is returned for owner keys that are empty or unsafe.
var ErrInvalidOwner = errors.New("invalid owner")

// State is everything remembered for one visitor.
type State struct {
	Custom       []model.University `yaml:"custom" json:"custom"`
	LastSelected string             `yaml:"last_selected,omitempty" json:"lastSelected,omitempty"`
}

// Store loads and saves visitor state keyed by an owner id.
type Store interface {
	Load(ctx context.Context, owner string) (State, error)
	Save(ctx context.Context, owner string, st State) error
	Clear(ctx context.Context, owner string) error
}

var ownerRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkOwner(owner string) error {
	if !ownerRe.MatchString(owner) {
		return fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	return nil
}

// LoadOrEmpty returns the stored state, or an empty State when there is none.
func LoadOrEmpty(ctx context.Context, s Store, owner string) (State, error) {
	st, err := s.Load(ctx, owner)
	if errors.Is(err, ErrNotFound) {
		return State{}, nil
	}
	return st, err
}

func cloneState(st State) State {
	out := State{LastSelected: st.LastSelected}
	if st.Custom != nil {
		out.Custom = append([]model.University(nil), st.Custom...)
	}
	return out
}
