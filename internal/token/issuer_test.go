package token

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

const issuerTestSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

var issuerTestTime = time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC)

func issuerTestConfig() config.Server {
	cfg := config.Server{}
	cfg.Auth.TokenIssuer = "validation-infra"
	cfg.Auth.TokenAudience = "mpc-signer"
	cfg.Auth.TokenExpiry = 2 * time.Minute
	cfg.Auth.SigningKeySeedHex = issuerTestSeed

	return cfg
}

func issuerTestRequest() validation.SigningRequest {
	return validation.SigningRequest{
		Message: []byte{0xde, 0xad, 0xbe, 0xef},
		Proof: validation.Proof{
			ChainID: 1,
			Kind:    validation.ProofKindDeposit,
			Nonce:   "0x8ff3f4cd3fda7d57f766782ce3d6ba8bfa0f37cb9b54330c0b9b23781a4c7e51",
		},
		RequestedAt: issuerTestTime,
	}
}

// 固定种子必须派生出固定密钥，重启不作废已签发的凭证
func TestIssuerDerivesKeyFromSeed(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	seed, err := hex.DecodeString(issuerTestSeed)
	require.NoError(t, err)

	expected := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	assert.Equal(t, hex.EncodeToString(expected), issuer.PublicKeyHex())

	again, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)
	assert.Equal(t, issuer.PublicKeyHex(), again.PublicKeyHex())
}

func TestIssuerIssueAndVerify(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	request := issuerTestRequest()
	fingerprint := request.Fingerprint()

	token, err := issuer.Issue(request, fingerprint)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, issuerTestTime.Add(2*time.Minute), token.ExpiresAt)
	assert.Len(t, strings.Split(token.Signed, "."), 3)

	claims, err := issuer.Verify(token.Signed)
	require.NoError(t, err)
	assert.Equal(t, fingerprint, claims.Fingerprint)
	assert.Equal(t, uint64(1), claims.ChainID)
	assert.Equal(t, request.Proof.Nonce, claims.Nonce)
	assert.Equal(t, token.ID, claims.ID)
	assert.Equal(t, "validation-infra", claims.Issuer)
	assert.Contains(t, claims.Audience, "mpc-signer")
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Time.Equal(token.ExpiresAt))
}

func TestIssuerMintsUniqueTokenIDs(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	first, err := issuer.Issue(issuerTestRequest(), "fingerprint")
	require.NoError(t, err)
	second, err := issuer.Issue(issuerTestRequest(), "fingerprint")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestIssuerVerifyRejectsExpiredToken(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	token, err := issuer.Issue(issuerTestRequest(), "fingerprint")
	require.NoError(t, err)

	// 同一把密钥，时钟拨到过期之后
	later, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime.Add(10*time.Minute)))
	require.NoError(t, err)

	_, err = later.Verify(token.Signed)
	require.Error(t, err)
}

func TestIssuerVerifyRejectsTamperedToken(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	token, err := issuer.Issue(issuerTestRequest(), "fingerprint")
	require.NoError(t, err)

	// 末位字符只承载补齐位，改倒数第二位才保证签名字节真的变了
	tampered := []byte(token.Signed)
	pos := len(tampered) - 2
	if tampered[pos] == 'A' {
		tampered[pos] = 'B'
	} else {
		tampered[pos] = 'A'
	}

	_, err = issuer.Verify(string(tampered))
	require.Error(t, err)
}

func TestIssuerVerifyRejectsForeignKey(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	foreignCfg := issuerTestConfig()
	foreignCfg.Auth.SigningKeySeedHex = "4ccd089b28ff96da9db6c346ec114e0f5b8a319f35aba624da8cf6ed4fb8a6fb"
	foreign, err := New(foreignCfg, time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	token, err := foreign.Issue(issuerTestRequest(), "fingerprint")
	require.NoError(t, err)

	_, err = issuer.Verify(token.Signed)
	require.Error(t, err)
}

// 换签名算法的凭证必须被拒绝，不允许算法混淆
func TestIssuerVerifyRejectsForeignAlgorithm(t *testing.T) {
	issuer, err := New(issuerTestConfig(), time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "validation-infra",
			Audience:  jwt.ClaimStrings{"mpc-signer"},
			ExpiresAt: jwt.NewNumericDate(issuerTestTime.Add(time.Hour)),
		},
		Fingerprint: "fingerprint",
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(issuer.PublicKeyHex()))
	require.NoError(t, err)

	_, err = issuer.Verify(forged)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signing method")
}

func TestIssuerEphemeralKeyWithoutSeed(t *testing.T) {
	cfg := issuerTestConfig()
	cfg.Auth.SigningKeySeedHex = ""

	first, err := New(cfg, time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)
	second, err := New(cfg, time2.NewMockClock(issuerTestTime))
	require.NoError(t, err)

	assert.Len(t, first.PublicKeyHex(), ed25519.PublicKeySize*2)
	assert.NotEqual(t, first.PublicKeyHex(), second.PublicKeyHex(), "ephemeral keys must not repeat")
}

func TestIssuerRejectsInvalidSeed(t *testing.T) {
	cfg := issuerTestConfig()
	cfg.Auth.SigningKeySeedHex = "not-hex"
	_, err := New(cfg, time2.NewMockClock(issuerTestTime))
	require.Error(t, err)

	cfg.Auth.SigningKeySeedHex = "abcd"
	_, err = New(cfg, time2.NewMockClock(issuerTestTime))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}
