// Package auth issues and verifies the tokens used by the API: short-lived
// access JWTs, opaque refresh tokens stored hashed, and signed one-shot
// action tokens for account activation and password reset.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AmrIbrahim41/smart-shop/internal/models"
)

const (
	PurposeActivate = "activate"
	PurposeReset    = "reset"

	typeAccess = "access"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidUID   = errors.New("invalid uid")
)

// Principal is the authenticated caller as carried by an access token.
type Principal struct {
	UserID      primitive.ObjectID
	IsAdmin     bool
	AccountType string
}

func (p *Principal) IsVendor() bool {
	return p != nil && p.AccountType == models.AccountVendor
}

// IsStaff is nil-safe so anonymous callers can be passed around as nil.
func (p *Principal) IsStaff() bool {
	return p != nil && p.IsAdmin
}

type Tokens struct {
	secret    []byte
	accessTTL time.Duration
	actionTTL time.Duration
	now       func() time.Time
}

func NewTokens(secret string, accessTTL, actionTTL time.Duration) *Tokens {
	return &Tokens{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		actionTTL: actionTTL,
		now:       time.Now,
	}
}

func (t *Tokens) AccessTTL() time.Duration {
	return t.accessTTL
}

func (t *Tokens) IssueAccess(u *models.User, accountType string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"typ":         typeAccess,
		"userId":      u.ID.Hex(),
		"isAdmin":     u.IsStaff,
		"accountType": accountType,
		"iat":         now.Unix(),
		"exp":         now.Add(t.accessTTL).Unix(),
	}
	return t.sign(claims)
}

func (t *Tokens) ParseAccess(raw string) (*Principal, error) {
	claims, err := t.parse(raw)
	if err != nil {
		return nil, err
	}
	if typ, _ := claims["typ"].(string); typ != typeAccess {
		return nil, ErrInvalidToken
	}

	userIDValue, _ := claims["userId"].(string)
	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return nil, ErrInvalidToken
	}
	isAdmin, _ := claims["isAdmin"].(bool)
	accountType, _ := claims["accountType"].(string)

	return &Principal{UserID: userID, IsAdmin: isAdmin, AccountType: accountType}, nil
}

// IssueAction returns the uid and token of an activation or reset link. The
// token is bound to the user's current state, so it stops verifying once
// the account is activated or the password changes.
func (t *Tokens) IssueAction(purpose string, u *models.User) (uid, token string, err error) {
	now := t.now()
	claims := jwt.MapClaims{
		"typ": purpose,
		"sub": u.ID.Hex(),
		"fp":  Fingerprint(u),
		"iat": now.Unix(),
		"exp": now.Add(t.actionTTL).Unix(),
	}
	token, err = t.sign(claims)
	if err != nil {
		return "", "", err
	}
	return EncodeUID(u.ID), token, nil
}

// ParseAction checks signature, purpose, expiry and that the token belongs to
// uid. It returns the user id and the state fingerprint to compare against
// the stored user.
func (t *Tokens) ParseAction(purpose, uid, token string) (primitive.ObjectID, string, error) {
	userID, err := DecodeUID(uid)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	claims, err := t.parse(token)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	if typ, _ := claims["typ"].(string); typ != purpose {
		return primitive.NilObjectID, "", ErrInvalidToken
	}
	if sub, _ := claims["sub"].(string); sub != userID.Hex() {
		return primitive.NilObjectID, "", ErrInvalidToken
	}
	fp, _ := claims["fp"].(string)
	return userID, fp, nil
}

// Fingerprint digests the parts of a user that a one-shot link must not
// survive: the password hash, activation and last login.
func Fingerprint(u *models.User) string {
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.Unix()
	}
	sum := sha256.Sum256([]byte(u.PasswordHash + "|" + strconv.FormatBool(u.IsActive) + "|" + strconv.FormatInt(lastLogin, 10)))
	return hex.EncodeToString(sum[:16])
}

func EncodeUID(id primitive.ObjectID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.Hex()))
}

func DecodeUID(uid string) (primitive.ObjectID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidUID
	}
	id, err := primitive.ObjectIDFromHex(string(raw))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidUID
	}
	return id, nil
}

// NewRefreshToken returns a random opaque token and the hash to store.
func NewRefreshToken() (plain, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	plain = hex.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (t *Tokens) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) parse(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
