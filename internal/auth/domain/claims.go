package domain

import "strings"

// LocalIssuer is the reserved issuer of locally signed development tokens.
const LocalIssuer = "custom_jwt"

// Claims is the verified payload of a bearer token. It is either a *LocalDevToken or an
// *ExternalIdentityToken, discriminated by the issuer.
type Claims interface {
	// Common returns the claims shared by both token classes.
	Common() *TokenClaims
	isClaims()
}

// TokenClaims are the fields read from either token class.
type TokenClaims struct {
	Issuer    string   `json:"iss"`
	Subject   string   `json:"sub"`
	Audience  []string `json:"aud,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	Email     string   `json:"email,omitempty"`
	UPN       string   `json:"upn,omitempty"`
	Name      string   `json:"name,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	// UTI is the token's unique identifier, used by the revocation list.
	UTI string `json:"uti,omitempty"`
}

// Common implements Claims.
func (c *TokenClaims) Common() *TokenClaims { return c }

// LocalDevToken is an HS256 token issued by this service for non-production use.
type LocalDevToken struct {
	TokenClaims
}

func (*LocalDevToken) isClaims() {}

// ExternalIdentityToken is an RS256 token issued by the external identity provider.
type ExternalIdentityToken struct {
	TokenClaims
	TenantID string `json:"tid,omitempty"`
	ObjectID string `json:"oid,omitempty"`
	AppID    string `json:"appid,omitempty"`
}

func (*ExternalIdentityToken) isClaims() {}

const (
	alternateDomain = "acm.illinois.edu"
	canonicalDomain = "illinois.edu"
)

// PrincipalID derives the username for a token: email, else the UPN rewritten to the
// canonical domain, else the subject.
func PrincipalID(c Claims) string {
	common := c.Common()
	switch {
	case common.Email != "":
		return common.Email
	case common.UPN != "":
		return strings.Replace(common.UPN, alternateDomain, canonicalDomain, 1)
	default:
		return common.Subject
	}
}
