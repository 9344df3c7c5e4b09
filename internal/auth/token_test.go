// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokens_IssueAndParse(t *testing.T) {
	tokens, err := NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	signed, exp, err := tokens.Issue("identity-1", "a@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "identity-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokens_Expired(t *testing.T) {
	tokens, err := NewTokens(testSecret, time.Minute)
	require.NoError(t, err)

	base := time.Now()
	tokens.now = func() time.Time { return base }
	signed, _, err := tokens.Issue("identity-1", "")
	require.NoError(t, err)

	tokens.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = tokens.Parse(signed)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokens_WrongSecret(t *testing.T) {
	a, err := NewTokens(testSecret, time.Hour)
	require.NoError(t, err)
	b, err := NewTokens("another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)

	signed, _, err := a.Issue("identity-1", "")
	require.NoError(t, err)

	_, err = b.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	tokens, err := NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "identity-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Invalid(t *testing.T) {
	tokens, err := NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	for _, tok := range []string{"", "   ", "not.a.token"} {
		_, err := tokens.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}

	_, _, err = tokens.Issue(" ", "")
	assert.Error(t, err)
}

func TestNewTokens_Validation(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	assert.Error(t, err)
	_, err = NewTokens(testSecret, 0)
	assert.Error(t, err)
}
