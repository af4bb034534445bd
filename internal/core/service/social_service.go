package service

import (
	"context"
	"sync"

	"github.com/starva/storefront/internal/port"
)

// optimistic applies a tentative value, remembers the prior one, and runs the
// confirming call: on success the tentative value stands, on failure the
// prior value is restored. Caller must hold whatever lock guards *state.
func optimistic[T any](state *T, tentative T, confirm func() error) error {
	prior := *state
	*state = tentative
	if err := confirm(); err != nil {
		*state = prior
		return err
	}
	return nil
}

// SocialService tracks which products are liked and which merchants are
// followed. Toggles are optimistic: the local flag flips immediately and is
// rolled back if the server rejects the call.
type SocialService struct {
	gateway port.Gateway

	mu        sync.Mutex
	liked     map[string]bool
	following map[string]bool
}

func NewSocialService(gateway port.Gateway) *SocialService {
	return &SocialService{
		gateway:   gateway,
		liked:     make(map[string]bool),
		following: make(map[string]bool),
	}
}

// SetLiked seeds the local like state from server data (e.g. a product fetch).
func (s *SocialService) SetLiked(slug string, liked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked[slug] = liked
}

// SetFollowing seeds the local follow state from server data.
func (s *SocialService) SetFollowing(slug string, following bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.following[slug] = following
}

func (s *SocialService) IsLiked(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liked[slug]
}

func (s *SocialService) IsFollowing(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.following[slug]
}

// ToggleLike flips the like state of a product and confirms it server-side.
// Returns the state the product ends up in.
func (s *SocialService) ToggleLike(ctx context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.liked[slug]
	err := optimistic(&state, !state, func() error {
		if state {
			return s.gateway.LikeProduct(ctx, slug)
		}
		return s.gateway.UnlikeProduct(ctx, slug)
	})
	s.liked[slug] = state
	return state, err
}

// ToggleFollow flips the follow state of a merchant and confirms it
// server-side. Returns the state the merchant ends up in.
func (s *SocialService) ToggleFollow(ctx context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.following[slug]
	err := optimistic(&state, !state, func() error {
		if state {
			return s.gateway.FollowMerchant(ctx, slug)
		}
		return s.gateway.UnfollowMerchant(ctx, slug)
	})
	s.following[slug] = state
	return state, err
}
