package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/evetabi/roulette/internal/config"
	"github.com/evetabi/roulette/internal/domain"
)

// capabilitySubject is the fixed JWT subject identifying the single admin
// capability. There is no user table and no role hierarchy (§4.5) — holding
// a token that verifies against this subject IS the capability.
const capabilitySubject = "admin"

// CapabilityClaims is the JWT payload minted for the admin capability.
type CapabilityClaims struct {
	jwt.RegisteredClaims
}

// AdminService mints and verifies the deployment's single AdminCapability.
// Off-chain, "presence of the capability" becomes "presented a token that
// verifies against the operator's signing secret" (§9).
type AdminService struct {
	cfg *config.Config
}

// NewAdminService creates an AdminService.
func NewAdminService(cfg *config.Config) *AdminService {
	return &AdminService{cfg: cfg}
}

// Mint issues a signed capability token after checking passphrase against
// the configured bcrypt hash. This is the only path by which the capability
// is ever materialized.
func (s *AdminService) Mint(passphrase string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswdHash), []byte(passphrase)); err != nil {
		return "", domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	claims := CapabilityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   capabilitySubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Admin.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Admin.Secret))
	if err != nil {
		return "", fmt.Errorf("admin_service.Mint: sign: %w", err)
	}
	return token, nil
}

// Verify parses tokenString and returns the AdminCapability it represents.
// Any failure — bad signature, wrong subject, expiry — collapses to
// ErrTokenInvalid; there is no partial credential.
func (s *AdminService) Verify(tokenString string) (domain.AdminCapability, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &CapabilityClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Admin.Secret), nil
	})
	if err != nil || !tok.Valid {
		return domain.AdminCapability{}, domain.ErrTokenInvalid
	}
	claims, ok := tok.Claims.(*CapabilityClaims)
	if !ok || claims.Subject != capabilitySubject {
		return domain.AdminCapability{}, domain.ErrTokenInvalid
	}
	return domain.AdminCapability{Holder: capabilitySubject}, nil
}
