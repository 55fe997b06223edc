package identity

import "time"

// Defaults applied by BaseConfig when a field is left zero. The access TTL
// stays well below the refresh TTL so a stolen access token is short-lived
// while sessions survive between visits.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
	DefaultBcryptCost      = 14
)

// BaseConfig is a plain value implementation of Config. Deployments that
// already carry a config container can implement Config directly instead.
type BaseConfig struct {
	SigningKey      string
	Issuer          string
	Audience        []string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

var _ Config = BaseConfig{}

func (c BaseConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c BaseConfig) GetIssuer() string {
	return c.Issuer
}

func (c BaseConfig) GetAudience() []string {
	return c.Audience
}

func (c BaseConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return DefaultAccessTokenTTL
	}
	return c.AccessTokenTTL
}

func (c BaseConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return DefaultRefreshTokenTTL
	}
	return c.RefreshTokenTTL
}

func (c BaseConfig) GetBcryptCost() int {
	if c.BcryptCost <= 0 {
		return DefaultBcryptCost
	}
	return c.BcryptCost
}
