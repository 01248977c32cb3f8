package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/auth"
	"github.com/AmrIbrahim41/smart-shop/internal/mailer"
	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const (
	profilePicturesFolder = "profiles"

	msgBadCredentials   = "No active account found with the given credentials"
	msgBadRefresh       = "Token is invalid or expired"
	msgBadResetLink     = "Invalid or expired token"
	msgBadActivation    = "Activation link is invalid or expired"
	msgPasswordMismatch = "Passwords do not match"
)

type AccountService struct {
	d *Deps
}

type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Type            string
}

// ProfileInput is a self-service profile update. Nil fields are kept; an
// empty password keeps the current one.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Password  string
	Phone     *string
	City      *string
	Country   *string
	Birthdate string
	Picture   *Upload
}

// AdminUserInput is what staff may change on another account.
type AdminUserInput struct {
	Name    *string
	Email   *string
	IsAdmin *bool
}

// UserWithToken is a user detail carrying a fresh access token.
type UserWithToken struct {
	models.UserDetail
	Token string `json:"token"`
}

// Session is the login response: the user, its access token and the refresh
// token that can be exchanged for the next one.
type Session struct {
	UserWithToken
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Register creates an inactive account with its profile and mails the
// activation link. The mail is sent inside the transaction, so an account
// is never left behind without one.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return apperr.Validation("Email is required")
	}
	if in.Password == "" {
		return apperr.Validation("Password is required")
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return apperr.Validation(msgPasswordMismatch)
	}
	accountType := strings.ToLower(strings.TrimSpace(in.Type))
	if accountType == "" {
		accountType = models.AccountCustomer
	}
	if accountType != models.AccountCustomer && accountType != models.AccountVendor {
		return apperr.Validation("type must be customer or vendor")
	}

	taken, err := s.d.Users.EmailTaken(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Validation("this email is already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return apperr.Internal("account creation failed", err)
	}
	now := s.d.now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &models.Profile{
		ID:     primitive.NewObjectID(),
		UserID: user.ID,
		Type:   accountType,
		Phone:  strings.TrimSpace(in.Phone),
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Users.Insert(ctx, user); err != nil {
			return err
		}
		if err := s.d.Profiles.Insert(ctx, profile); err != nil {
			return err
		}
		uid, token, err := s.d.Tokens.IssueAction(auth.PurposeActivate, user)
		if err != nil {
			return apperr.Internal("account creation failed", err)
		}
		subject, body := mailer.ActivationMessage(user.DisplayName(), s.link("activate", uid, token))
		if err := s.d.Mailer.Send(ctx, email, subject, body); err != nil {
			return apperr.Internal("account creation failed", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.d.Log.Info("account registered", zap.String("userId", user.ID.Hex()), zap.String("type", accountType))
	return nil
}

// Activate redeems an activation link. Activating changes the user's
// fingerprint, so the same link cannot be used twice.
func (s *AccountService) Activate(ctx context.Context, uid, token string) error {
	user, err := s.redeem(ctx, auth.PurposeActivate, uid, token, msgBadActivation)
	if err != nil {
		return err
	}
	user.IsActive = true
	return s.d.Users.Update(ctx, user)
}

func (s *AccountService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	user, err := s.d.Users.FindByEmail(ctx, identifier)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized(msgBadCredentials)
		}
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}

	now := s.d.now()
	if err := s.d.Users.TouchLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	profile, err := s.d.Profiles.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user, profile, primitive.NewObjectID())
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued. A token can be rotated once.
func (s *AccountService) Refresh(ctx context.Context, raw string) (*Session, error) {
	stored, err := s.d.RefreshTokens.FindByHash(ctx, auth.HashToken(raw))
	if err != nil {
		return nil, err
	}
	if !stored.Usable(s.d.now()) {
		return nil, apperr.Unauthorized(msgBadRefresh)
	}
	user, err := s.d.Users.FindByID(ctx, stored.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized(msgBadRefresh)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized(msgBadRefresh)
	}

	nextID := primitive.NewObjectID()
	revoked, err := s.d.RefreshTokens.Revoke(ctx, stored.ID, &nextID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, apperr.Unauthorized(msgBadRefresh)
	}

	profile, err := s.d.Profiles.FindByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user, profile, nextID)
}

func (s *AccountService) Logout(ctx context.Context, raw string) error {
	stored, err := s.d.RefreshTokens.FindByHash(ctx, auth.HashToken(raw))
	if err != nil {
		return err
	}
	_, err = s.d.RefreshTokens.Revoke(ctx, stored.ID, nil)
	return err
}

// ForgotPassword mails a reset link when the account exists. The outcome is
// never reported to the caller.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.d.Users.FindByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	uid, token, err := s.d.Tokens.IssueAction(auth.PurposeReset, user)
	if err != nil {
		return apperr.Internal("failed to create reset link", err)
	}
	subject, body := mailer.PasswordResetMessage(s.link("reset-password", uid, token))
	if err := s.d.Mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.d.Log.Warn("reset mail not sent", zap.String("userId", user.ID.Hex()), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password from a reset link. The link is bound to
// the old password hash and stops working once it has been used. Existing
// refresh tokens are dropped.
func (s *AccountService) ResetPassword(ctx context.Context, uid, token, password, confirm string) error {
	if password != confirm {
		return apperr.Validation(msgPasswordMismatch)
	}
	if password == "" {
		return apperr.Validation("Password is required")
	}
	user, err := s.redeem(ctx, auth.PurposeReset, uid, token, msgBadResetLink)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperr.Internal("failed to reset password", err)
	}
	user.PasswordHash = hash

	return s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Users.Update(ctx, user); err != nil {
			return err
		}
		return s.d.RefreshTokens.DeleteByUser(ctx, user.ID)
	})
}

func (s *AccountService) Profile(ctx context.Context, p *auth.Principal) (*models.UserDetail, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	return s.detail(ctx, p.UserID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, p *auth.Principal, in ProfileInput) (*UserWithToken, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	user, err := s.d.Users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := s.d.Profiles.FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.Profile{ID: primitive.NewObjectID(), UserID: user.ID, Type: models.AccountCustomer}
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, apperr.Internal("failed to update profile", err)
		}
		user.PasswordHash = hash
	}
	if in.Phone != nil {
		profile.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.City != nil {
		profile.City = strings.TrimSpace(*in.City)
	}
	if in.Country != nil {
		profile.Country = strings.TrimSpace(*in.Country)
	}
	if in.Birthdate != "" {
		profile.Birthdate = in.Birthdate
	}

	oldPicture := profile.ProfilePicture
	var stored string
	if in.Picture != nil {
		stored, err = s.d.storeImage(ctx, profilePicturesFolder, *in.Picture)
		if err != nil {
			return nil, err
		}
		profile.ProfilePicture = stored
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Users.Update(ctx, user); err != nil {
			return err
		}
		return s.d.Profiles.Upsert(ctx, profile)
	})
	if err != nil {
		s.d.removeFiles(ctx, stored)
		return nil, err
	}
	if stored != "" && oldPicture != "" {
		s.d.removeFiles(ctx, oldPicture)
	}

	token, err := s.d.Tokens.IssueAccess(user, profile.Type)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	return &UserWithToken{UserDetail: models.NewUserDetail(user, profile), Token: token}, nil
}

func (s *AccountService) Users(ctx context.Context, p *auth.Principal) ([]models.UserDetail, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	users, err := s.d.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	profiles, err := s.d.Profiles.FindByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[primitive.ObjectID]*models.Profile, len(profiles))
	for i := range profiles {
		byUser[profiles[i].UserID] = &profiles[i]
	}

	out := make([]models.UserDetail, 0, len(users))
	for i := range users {
		out = append(out, models.NewUserDetail(&users[i], byUser[users[i].ID]))
	}
	return out, nil
}

func (s *AccountService) User(ctx context.Context, p *auth.Principal, id primitive.ObjectID) (*models.UserDetail, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

func (s *AccountService) UpdateUser(ctx context.Context, p *auth.Principal, id primitive.ObjectID, in AdminUserInput) (*models.UserDetail, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	user, err := s.d.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.FirstName = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, apperr.Validation("Email is required")
		}
		user.Email = email
		user.Username = email
	}
	if in.IsAdmin != nil {
		user.IsStaff = *in.IsAdmin
	}
	if err := s.d.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.detail(ctx, id)
}

// DeleteUser removes an account with everything that only makes sense for
// it. Reviews, orders and products outlive the account without an owner.
func (s *AccountService) DeleteUser(ctx context.Context, p *auth.Principal, id primitive.ObjectID) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	profile, err := s.d.Profiles.FindByUser(ctx, id)
	if err != nil {
		return err
	}

	err = s.d.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.d.Users.Delete(ctx, id); err != nil {
			return err
		}
		steps := []func(context.Context, primitive.ObjectID) error{
			s.d.Profiles.DeleteByUser,
			s.d.Carts.Clear,
			s.d.Wishlist.Clear,
			s.d.RefreshTokens.DeleteByUser,
			s.d.Reviews.DetachUser,
			s.d.Orders.DetachUser,
			s.d.Products.DetachOwner,
		}
		for _, step := range steps {
			if err := step(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.d.TopCache.Invalidate(ctx)
	if profile != nil {
		s.d.removeFiles(ctx, profile.ProfilePicture)
	}
	s.d.Log.Info("user deleted", zap.String("userId", id.Hex()), zap.String("by", p.UserID.Hex()))
	return nil
}

func (s *AccountService) detail(ctx context.Context, id primitive.ObjectID) (*models.UserDetail, error) {
	user, err := s.d.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.d.Profiles.FindByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := models.NewUserDetail(user, profile)
	return &detail, nil
}

// redeem validates a one-shot link and returns the user it belongs to. Every
// failure is reported with the same message.
func (s *AccountService) redeem(ctx context.Context, purpose, uid, token, msg string) (*models.User, error) {
	userID, fp, err := s.d.Tokens.ParseAction(purpose, uid, token)
	if err != nil {
		return nil, apperr.Validation(msg)
	}
	user, err := s.d.Users.FindByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation(msg)
		}
		return nil, err
	}
	if fp != auth.Fingerprint(user) {
		return nil, apperr.Validation(msg)
	}
	return user, nil
}

func (s *AccountService) issueSession(ctx context.Context, user *models.User, profile *models.Profile, refreshID primitive.ObjectID) (*Session, error) {
	accountType := models.AccountCustomer
	if profile != nil {
		accountType = profile.Type
	}
	access, err := s.d.Tokens.IssueAccess(user, accountType)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	plain, hash, err := auth.NewRefreshToken()
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	now := s.d.now()
	err = s.d.RefreshTokens.Insert(ctx, &models.RefreshToken{
		ID:        refreshID,
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.d.Options.RefreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		UserWithToken: UserWithToken{UserDetail: models.NewUserDetail(user, profile), Token: access},
		Access:        access,
		Refresh:       plain,
	}, nil
}

func (s *AccountService) link(path, uid, token string) string {
	return s.d.Options.FrontendURL + "/" + path + "/" + uid + "/" + token + "/"
}
