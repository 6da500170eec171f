package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Generates a fresh Ed25519 issuer keypair and a sample authorization token
// signed with it. The printed seed can be set as SERVER_AUTH_SIGNING_KEY_SEED.
func main() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}

	now := time.Now()

	claims := struct {
		jwt.RegisteredClaims
		Fingerprint string `json:"fpt,omitempty"`
		ChainID     uint64 `json:"chain_id,omitempty"`
		Nonce       string `json:"nonce,omitempty"`
	}{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "validation-infra",
			Audience:  jwt.ClaimStrings{"mpc-signer"},
		},
		Fingerprint: "00000000000000000000000000000000",
		ChainID:     1,
		Nonce:       "0x0",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signedToken, err := token.SignedString(priv)
	if err != nil {
		panic(err)
	}

	fmt.Printf("seed: %s\n", hex.EncodeToString(priv.Seed()))
	fmt.Printf("public key: %s\n", hex.EncodeToString(pub))
	fmt.Println(signedToken)
}
