// Package auth orchestrates federated sign-in: it drives the site adapters,
// decides between signing in, linking and registering, and owns the
// remember-me cookie lifecycle.
package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/observability/logger"
	"github.com/lanahead/lanahead/internal/session"
)

var (
	// ErrUnknownSite means the requested sign-in site is not configured.
	ErrUnknownSite = errors.New("unknown sign-in site")

	// ErrAccountLinkedElsewhere means the authenticated account already
	// belongs to a different player than the one signed in.
	ErrAccountLinkedElsewhere = errors.New("account already linked to another player")

	// ErrNoPendingRegistration means registration was attempted without a
	// matching authenticated account waiting in the session.
	ErrNoPendingRegistration = errors.New("no authenticated account pending registration")

	// ErrInvalidUsername means the username fails the shape rules.
	ErrInvalidUsername = errors.New("username must be 4 to 20 characters without '/', '#', '?' or spaces")
)

// Service wires the sign-in site adapters to the player store.
type Service struct {
	store    repository.Store
	remember *Remember
	adapters map[string]providers.Provider
}

// NewService builds the orchestrator over the given adapters. Sites without
// an adapter simply do not exist as far as the service is concerned.
func NewService(store repository.Store, remember *Remember, adapters ...providers.Provider) *Service {
	byID := make(map[string]providers.Provider, len(adapters))
	for _, a := range adapters {
		byID[a.Site().ID] = a
	}
	return &Service{store: store, remember: remember, adapters: byID}
}

// Sites returns the configured sign-in sites in display order.
func (s *Service) Sites() []providers.Site {
	sites := make([]providers.Site, 0, len(s.adapters))
	for _, site := range providers.Sites {
		if _, ok := s.adapters[site.ID]; ok {
			sites = append(sites, site)
		}
	}
	return sites
}

func (s *Service) adapter(siteID string) (providers.Provider, error) {
	a, ok := s.adapters[strings.ToLower(siteID)]
	if !ok {
		return nil, ErrUnknownSite
	}
	return a, nil
}

// SignInURL builds the external authorization URL for a site, minting the
// session's sign-in nonce.
func (s *Service) SignInURL(sess *session.Session, siteID string, remember bool, returnHash string) (string, error) {
	a, err := s.adapter(siteID)
	if err != nil {
		return "", err
	}
	return a.BuildSignInURL(sess, remember, providers.CleanReturnHash(returnHash))
}

// SignInResult is the outcome of processing an external site callback.
type SignInResult struct {
	// Registered is false when the account is new and the browser anonymous,
	// meaning the caller should offer the registration form prefilled from
	// the fields below.
	Registered bool   `json:"registered"`
	ReturnHash string `json:"returnHash"`

	SiteName   string `json:"siteName,omitempty"`
	Username   string `json:"username,omitempty"`
	RealName   string `json:"realName,omitempty"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatar,omitempty"`
	ProfileURL string `json:"profile,omitempty"`
}

// SignIn completes an external site's callback. Known accounts sign the
// browser in (or just confirm, when already signed in as the same player);
// unknown accounts are linked to the signed-in player or parked in the
// session for registration.
func (s *Service) SignIn(ctx context.Context, sess *session.Session, w http.ResponseWriter, siteID string, callback url.Values) (*SignInResult, error) {
	a, err := s.adapter(siteID)
	if err != nil {
		return nil, err
	}
	siteID = a.Site().ID

	res, err := a.Authenticate(ctx, sess, callback)
	if err != nil {
		return nil, err
	}
	log := logger.From(ctx).With(logger.Site(siteID), logger.AccountID(res.AccountID))

	account, err := s.store.Accounts().Get(ctx, siteID, res.AccountID)
	switch {
	case err == nil:
		return s.signInKnown(ctx, sess, w, log, account, res)
	case repository.IsNotFound(err):
	default:
		return nil, err
	}

	if sess.PlayerID != 0 {
		// Signed-in player linking a fresh account.
		err := s.store.Accounts().Link(ctx, sess.PlayerID, siteID, res.AccountID, repository.ProfileSnapshot{
			Name:   res.Username,
			URL:    res.ProfileURL,
			Avatar: res.AvatarURL,
		}, false)
		if err != nil {
			return nil, err
		}
		log.Info("account linked", logger.PlayerID(sess.PlayerID))
		return &SignInResult{Registered: true, ReturnHash: res.ReturnHash}, nil
	}

	// Anonymous browser with an unknown account: park it for registration.
	sess.CachePending(session.PendingRegistration{
		Site:       siteID,
		AccountID:  res.AccountID,
		Username:   res.Username,
		AvatarURL:  res.AvatarURL,
		ProfileURL: res.ProfileURL,
		Remember:   res.Remember,
	})
	log.Info("account pending registration")
	return &SignInResult{
		Registered: false,
		ReturnHash: res.ReturnHash,
		SiteName:   a.Site().Name,
		Username:   res.Username,
		RealName:   res.RealName,
		Email:      res.Email,
		AvatarURL:  res.AvatarURL,
		ProfileURL: res.ProfileURL,
	}, nil
}

func (s *Service) signInKnown(ctx context.Context, sess *session.Session, w http.ResponseWriter, log *zap.Logger, account *repository.Account, res *providers.Result) (*SignInResult, error) {
	if sess.PlayerID != 0 && sess.PlayerID != account.PlayerID {
		return nil, ErrAccountLinkedElsewhere
	}

	// Refresh the stored snapshot with whatever the site reports now.
	if account.ProfileID != 0 {
		if err := s.store.Profiles().Update(ctx, account.ProfileID, res.Username, res.ProfileURL, res.AvatarURL); err != nil {
			log.Warn("profile refresh failed", logger.Err(err))
		}
	}

	wasAnonymous := sess.PlayerID == 0
	sess.PlayerID = account.PlayerID
	if err := s.store.Players().TouchLastLogin(ctx, account.PlayerID); err != nil {
		log.Warn("last login update failed", logger.Err(err))
	}
	if wasAnonymous && res.Remember {
		if err := s.remember.Issue(ctx, w, account.PlayerID); err != nil {
			log.Warn("remember-me issue failed", logger.Err(err))
		}
	}
	log.Info("player signed in", logger.PlayerID(account.PlayerID))
	return &SignInResult{Registered: true, ReturnHash: res.ReturnHash}, nil
}

// AvatarChoice selects which linked profile supplies the player's avatar.
type AvatarChoice string

const (
	AvatarAccount AvatarChoice = "account"
	AvatarEmail   AvatarChoice = "email"
	AvatarDefault AvatarChoice = "default"
)

// RegistrationInput is the registration form contents.
type RegistrationInput struct {
	Username string
	RealName string
	Email    string
	Avatar   AvatarChoice
}

// CompleteRegistration turns the session's pending account into a new
// player. An unusable email is dropped rather than rejected, and the avatar
// choice degrades to whatever source actually has an image.
func (s *Service) CompleteRegistration(ctx context.Context, sess *session.Session, w http.ResponseWriter, siteID string, input RegistrationInput) (*repository.Player, error) {
	a, err := s.adapter(siteID)
	if err != nil {
		return nil, err
	}
	pending, ok := sess.TakePending(a.Site().ID)
	if !ok {
		return nil, ErrNoPendingRegistration
	}

	username := strings.TrimSpace(input.Username)
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	email := strings.TrimSpace(input.Email)
	if !ValidEmail(email) {
		email = ""
	}

	avatar := input.Avatar
	if avatar == "" {
		avatar = AvatarAccount
	}
	if avatar == AvatarAccount && pending.AvatarURL == "" {
		avatar = AvatarEmail
	}
	if avatar == AvatarEmail && email == "" {
		avatar = AvatarDefault
	}

	reg := repository.RegisterPlayerInput{
		Username:  username,
		RealName:  strings.TrimSpace(input.RealName),
		Site:      pending.Site,
		AccountID: pending.AccountID,
		AccountProfile: repository.ProfileSnapshot{
			Name:   pending.Username,
			URL:    pending.ProfileURL,
			Avatar: pending.AvatarURL,
		},
		UseAccountAvatar: avatar == AvatarAccount,
	}
	if email != "" {
		reg.Email = email
		reg.EmailProfile = repository.ProfileSnapshot{
			Name:   email,
			URL:    "mailto:" + email,
			Avatar: GravatarURL(email),
		}
		reg.UseEmailAvatar = avatar == AvatarEmail
	}

	player, err := s.store.Players().Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	sess.PlayerID = player.ID
	if pending.Remember {
		if err := s.remember.Issue(ctx, w, player.ID); err != nil {
			logger.From(ctx).Warn("remember-me issue failed", logger.PlayerID(player.ID), logger.Err(err))
		}
	}
	logger.From(ctx).Info("player registered", logger.PlayerID(player.ID), logger.Site(pending.Site))
	return player, nil
}

// SignOut forgets the signed-in player and the browser's remember-me series.
// Called even when nobody is signed in.
func (s *Service) SignOut(ctx context.Context, sess *session.Session, w http.ResponseWriter, r *http.Request) {
	sess.PlayerID = 0
	s.remember.Forget(ctx, w, r)
}

// ResolvePlayer identifies the player behind a request: the session first,
// then a remember-me cookie sign-in. Returns nil without error for an
// anonymous browser.
func (s *Service) ResolvePlayer(ctx context.Context, sess *session.Session, w http.ResponseWriter, r *http.Request) (*repository.Player, error) {
	if sess.PlayerID != 0 {
		player, err := s.store.Players().GetByID(ctx, sess.PlayerID)
		if err != nil {
			if repository.IsNotFound(err) {
				sess.PlayerID = 0
				return nil, nil
			}
			return nil, err
		}
		if err := s.store.Players().TouchLastRequest(ctx, player.ID); err != nil {
			logger.From(ctx).Warn("last request update failed", logger.PlayerID(player.ID), logger.Err(err))
		}
		return player, nil
	}

	playerID, ok := s.remember.Verify(ctx, w, r)
	if !ok {
		return nil, nil
	}
	player, err := s.store.Players().GetByID(ctx, playerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	sess.PlayerID = player.ID
	if err := s.store.Players().TouchLastLogin(ctx, player.ID); err != nil {
		logger.From(ctx).Warn("last login update failed", logger.PlayerID(player.ID), logger.Err(err))
	}
	return player, nil
}
