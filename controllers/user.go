package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ecofinds/logging"
	"ecofinds/models"
	"ecofinds/store"
	"ecofinds/utils"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the persistence UserController needs
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	FindProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, username, avatarURL *string) (*models.Profile, error)
}

// welcomeTimeout bounds the welcome email sent after signup
const welcomeTimeout = 30 * time.Second

// Welcomer sends the welcome email after signup
type Welcomer interface {
	SendWelcomeEmail(ctx context.Context, toEmail, username string) error
}

// UserController handles user-related requests
type UserController struct {
	Store    UserStore
	Welcomer Welcomer

	// newBackOff paces profile upsert retries at signup
	newBackOff func() backoff.BackOff
}

// NewUserController creates a new UserController. welcomer may be nil.
func NewUserController(users UserStore, welcomer Welcomer) *UserController {
	return &UserController{
		Store:    users,
		Welcomer: welcomer,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = 3 * time.Second
			return backoff.WithMaxRetries(b, 3)
		},
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Username string `json:"username" validate:"required,username"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Username  *string `json:"username" validate:"omitnil,username"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// Signup creates an identity and its profile and returns a token
func (uc *UserController) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	log := logging.Ctx(ctx)

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("hash password")
		utils.WriteError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	user := &models.User{
		Email:    strings.TrimSpace(req.Email),
		Username: req.Username,
		Password: hash,
	}
	if err := uc.Store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.WriteError(w, http.StatusBadRequest, friendlyAuthError(errAlreadyRegistered))
			return
		}
		log.Error().Err(err).Msg("create user")
		utils.WriteError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	profile := &models.Profile{ID: user.ID, Username: req.Username}
	if err := uc.upsertProfile(ctx, profile); err != nil {
		// Without a profile the identity is unusable, so take it back even
		// if the client has gone away
		if derr := uc.Store.DeleteUser(context.WithoutCancel(ctx), user.ID); derr != nil {
			log.Error().Err(derr).Str("user_id", user.ID.Hex()).Msg("rollback user after profile failure")
		}
		if errors.Is(err, store.ErrDuplicate) {
			utils.WriteError(w, http.StatusBadRequest, friendlyAuthError(errUsernameTaken))
			return
		}
		log.Error().Err(err).Msg("create profile")
		utils.WriteError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Msg("generate token")
		utils.WriteError(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	if uc.Welcomer != nil {
		go func(ctx context.Context, email, username string) {
			ctx, cancel := context.WithTimeout(ctx, welcomeTimeout)
			defer cancel()
			if err := uc.Welcomer.SendWelcomeEmail(ctx, email, username); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("email", email).Msg("failed to send welcome email")
			}
		}(context.WithoutCancel(ctx), user.Email, profile.Username)
	}

	log.Info().Str("user_id", user.ID.Hex()).Msg("user signed up")
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    user,
		"profile": profile,
		"token":   token,
	})
}

// upsertProfile retries transient failures. A taken username is final.
func (uc *UserController) upsertProfile(ctx context.Context, profile *models.Profile) error {
	op := func() error {
		err := uc.Store.UpsertProfile(ctx, profile)
		if errors.Is(err, store.ErrDuplicate) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logging.Ctx(ctx).Warn().Err(err).Dur("retry_in", wait).Msg("profile upsert failed")
	}
	return backoff.RetryNotify(op, backoff.WithContext(uc.newBackOff(), ctx), notify)
}

// Login checks credentials and returns a token with the caller's profile
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	log := logging.Ctx(ctx)

	user, err := uc.Store.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("find user")
		utils.WriteError(w, http.StatusInternalServerError, "Error signing in")
		return
	}
	if user == nil || !utils.CheckPassword(user.Password, req.Password) {
		utils.WriteError(w, http.StatusUnauthorized, friendlyAuthError(errInvalidCredentials))
		return
	}

	profile, err := uc.Store.FindProfile(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Signup may have stopped between the identity and the profile
		profile = &models.Profile{ID: user.ID, Username: fallbackUsername(user)}
		err = uc.upsertProfile(ctx, profile)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("load profile")
		utils.WriteError(w, http.StatusInternalServerError, "Error signing in")
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Msg("generate token")
		utils.WriteError(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"profile": profile,
	})
}

func fallbackUsername(user *models.User) string {
	if user.Username != "" {
		return user.Username
	}
	return "user_" + user.ID.Hex()[18:]
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := uc.Store.FindProfile(r.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Profile not found")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("find profile")
		utils.WriteError(w, http.StatusInternalServerError, "Error loading profile")
		return
	}
	utils.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile changes the caller's username and/or avatar
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == nil && req.AvatarURL == nil {
		utils.WriteError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	profile, err := uc.Store.UpdateProfile(r.Context(), uid, req.Username, req.AvatarURL)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		utils.WriteError(w, http.StatusBadRequest, friendlyAuthError(errUsernameTaken))
	case errors.Is(err, store.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Profile not found")
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("update profile")
		utils.WriteError(w, http.StatusInternalServerError, "Error updating profile")
	default:
		utils.WriteJSON(w, http.StatusOK, profile)
	}
}
