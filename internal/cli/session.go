package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tessro/cuecard/internal/browser"
	"github.com/tessro/cuecard/internal/core"
	"github.com/tessro/cuecard/internal/devicestore"
	apperrors "github.com/tessro/cuecard/internal/errors"
	"github.com/tessro/cuecard/internal/spotify/auth"
	"github.com/tessro/cuecard/internal/spotify/client"
	"github.com/tessro/cuecard/internal/spotify/player"
)

// session bundles the collaborators every Spotify command needs.
type session struct {
	logger  *zap.SugaredLogger
	flow    *auth.Flow
	tokens  *auth.TokenStorage
	devices *devicestore.Store
	player  *player.Player
}

func newSession(logger *zap.SugaredLogger, opts ...auth.FlowOption) (*session, error) {
	if cfg.Spotify.ClientID == "" {
		return nil, apperrors.WithSuggestion(
			fmt.Errorf("%w: spotify.client_id is not set", apperrors.ErrInvalidConfig),
			"Set spotify.client_id in ~/.cuecardrc or via CUECARD_SPOTIFY_CLIENT_ID",
		)
	}

	tokens, err := auth.NewTokenStorage(filepath.Join(cfg.Storage.Dir, auth.DefaultTokenFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	authCfg := auth.NewConfig(cfg.Spotify.ClientID)
	authCfg.RedirectURI = cfg.Spotify.RedirectURI

	return &session{
		logger:  logger,
		flow:    auth.NewFlow(authCfg, tokens, logger, append([]auth.FlowOption{auth.WithOpener(browser.Open)}, opts...)...),
		tokens:  tokens,
		devices: devicestore.New(cfg.Storage.Dir),
		player:  player.New(client.New(client.WithLogger(logger))),
	}, nil
}

// signIn installs the stored token on the player.
func (s *session) signIn(ctx context.Context) error {
	token := s.flow.StoredToken(ctx)
	if token == "" {
		return fmt.Errorf("%w: not signed in", apperrors.ErrUnauthorized)
	}
	s.player.SetToken(token)
	return nil
}

// useSavedDevice targets the saved device, if any, and returns it.
func (s *session) useSavedDevice() *core.SavedDevice {
	saved := s.devices.Load()
	if saved != nil {
		s.player.UseDevice(saved.ID)
	}
	return saved
}

// connect signs in and targets the saved device.
func connect(ctx context.Context) (*session, error) {
	logger, err := newLogger(false)
	if err != nil {
		return nil, err
	}
	s, err := newSession(logger)
	if err != nil {
		return nil, err
	}
	if err := s.signIn(ctx); err != nil {
		return nil, err
	}
	s.useSavedDevice()
	return s, nil
}
