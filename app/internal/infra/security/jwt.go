package security

import (
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	domuser "example.com/storefront/app/internal/domain/user"
	authuc "example.com/storefront/app/internal/usecase/auth"
)

const issuer = "storefront"

// JWTService issues HS256 access tokens. The subject is the user id; role,
// email and display name ride along so handlers need no user lookup.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type accessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (s *JWTService) GenerateToken(u *domuser.User) (string, error) {
	issued := s.now()
	claims := accessClaims{
		Role:  string(u.RoleCode),
		Email: u.Email,
		Name:  u.Name(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (s *JWTService) ParseToken(token string) (*authuc.Claims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, domuser.ErrUnauthorized
	}
	role, err := domuser.ParseRoleCode(claims.Role)
	if err != nil {
		return nil, domuser.ErrUnauthorized
	}

	return &authuc.Claims{
		UserID:   userID,
		RoleCode: role,
		Email:    claims.Email,
		Name:     claims.Name,
	}, nil
}
