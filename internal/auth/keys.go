package auth

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

func parsePrivateKey(alg string, pemBytes []byte) (any, error) {
	switch {
	case strings.HasPrefix(alg, "ES"):
		key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("auth: parse EC private key: %w", err)
		}
		return key, nil
	case strings.HasPrefix(alg, "RS"), strings.HasPrefix(alg, "PS"):
		key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("auth: parse RSA private key: %w", err)
		}
		return key, nil
	}
	return nil, fmt.Errorf("auth: unsupported signing algorithm %q", alg)
}

func publicKeyOf(key any) (any, error) {
	switch k := key.(type) {
	case []byte:
		if len(k) == 0 {
			return nil, fmt.Errorf("auth: empty HMAC secret")
		}
		return k, nil
	case *ecdsa.PrivateKey:
		return &k.PublicKey, nil
	case *rsa.PrivateKey:
		return &k.PublicKey, nil
	}
	return nil, fmt.Errorf("auth: unsupported key type %T", key)
}
