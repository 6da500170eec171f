package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// Claims 授权凭证的载荷。指纹把凭证绑死在产生它的那个请求上，
// 签名方可以据此确认凭证与待签消息的对应关系。
type Claims struct {
	jwt.RegisteredClaims
	Fingerprint string `json:"fpt"`
	ChainID     uint64 `json:"chain_id"`
	Nonce       string `json:"nonce"`
}

// Issuer 用 Ed25519 为授权判定铸造短命 JWT 凭证。
type Issuer struct {
	issuer   string
	audience string
	expiry   time.Duration
	clock    time2.Clock
	private  ed25519.PrivateKey
	public   ed25519.PublicKey
}

// New 创建凭证签发器。没有配置签名种子时生成临时密钥对并告警，
// 重启后旧凭证全部失效，只适合开发环境。
func New(cfg config.Server, clock time2.Clock) (*Issuer, error) {
	var private ed25519.PrivateKey

	if seedHex := cfg.Auth.SigningKeySeedHex; seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode signing key seed")
		}
		if len(seed) != ed25519.SeedSize {
			return nil, errors.Errorf("signing key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}

		private = ed25519.NewKeyFromSeed(seed)
	} else {
		log.Warn().Msg("No signing key seed configured, generating ephemeral token signing key")

		_, generated, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate ephemeral signing key")
		}

		private = generated
	}

	return &Issuer{
		issuer:   cfg.Auth.TokenIssuer,
		audience: cfg.Auth.TokenAudience,
		expiry:   cfg.Auth.TokenExpiry,
		clock:    clock,
		private:  private,
		public:   private.Public().(ed25519.PublicKey),
	}, nil
}

// Issue 铸造授权凭证
func (i *Issuer) Issue(request validation.SigningRequest, fingerprint string) (*validation.Token, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.expiry)
	id := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Fingerprint: fingerprint,
		ChainID:     request.Proof.ChainID,
		Nonce:       request.Proof.Nonce,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(i.private)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign authorization token")
	}

	return &validation.Token{
		ID:        id,
		Signed:    signed,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify 解析并验证凭证签名，测试与对端调试用。
func (i *Issuer) Verify(signed string) (*Claims, error) {
	claims := new(Claims)

	_, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}

		return i.public, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithAudience(i.audience), jwt.WithTimeFunc(i.clock.Now))
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify authorization token")
	}

	return claims, nil
}

// PublicKeyHex 返回验证方需要的公钥十六进制编码
func (i *Issuer) PublicKeyHex() string {
	return hex.EncodeToString(i.public)
}
