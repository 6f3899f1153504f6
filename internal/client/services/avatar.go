package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/devtv/devtv/internal/client/api"
	"github.com/devtv/devtv/internal/filex"
)

// MaxAvatarBytes caps the size of an uploaded avatar.
const MaxAvatarBytes = 5 << 20

// SetAvatar uploads the image at path, makes it the signed-in user's avatar
// and returns its storage key. A failed upload leaves the old avatar.
func (s *AuthService) SetAvatar(ctx context.Context, path string) (string, error) {
	data, contentType, err := filex.ReadLimited(path, MaxAvatarBytes)
	if err != nil {
		return "", err
	}

	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	up, err := s.client.BeginAvatarUpload(ctx, token)
	if err != nil {
		return "", notSignedIn(err)
	}

	if err := s.upload(ctx, up.URL, data, contentType); err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.client.CompleteAvatarUpload(ctx, token, up.Key); err != nil {
		return "", notSignedIn(err)
	}
	return up.Key, nil
}

// AvatarURL returns a temporary download URL for the signed-in user's
// avatar, or api.ErrNoAvatar.
func (s *AuthService) AvatarURL(ctx context.Context) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", err
	}

	url, err := s.client.AvatarURL(ctx, token)
	if err != nil {
		return "", notSignedIn(err)
	}
	return url, nil
}

// notSignedIn reports a 401 on a session-bound call as an expired session
// rather than bad credentials.
func notSignedIn(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return ErrNotSignedIn
	}
	return err
}
