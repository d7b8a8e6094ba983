package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recetar/recetar-api/internal/core/domain"
)

type failingExistsRepo struct {
	*stubUserRepo
	err error
}

func (r failingExistsRepo) ExistsByID(context.Context, string) (bool, error) {
	return false, r.err
}

func TestDelegatedVerifier_KnownUser(t *testing.T) {
	users := newStubUserRepo(nil)
	user, err := users.Create(context.Background(), &domain.User{Username: "andes", Email: "andes@x.com"})
	require.NoError(t, err)

	tokens, _ := NewTokenService("andes-secret")
	token, err := tokens.IssueSessionToken(user.ID, "andes", "", nil, time.Hour)
	require.NoError(t, err)

	id, err := NewDelegatedVerifier(tokens, users).Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestDelegatedVerifier_UnknownSubject(t *testing.T) {
	tokens, _ := NewTokenService("andes-secret")
	token, _ := tokens.IssueSessionToken("ghost", "ghost", "", nil, 0)

	_, err := NewDelegatedVerifier(tokens, newStubUserRepo(nil)).Verify(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestDelegatedVerifier_BadToken(t *testing.T) {
	tokens, _ := NewTokenService("andes-secret")
	other, _ := NewTokenService("different")
	foreign, _ := other.IssueSessionToken("u1", "x", "", nil, time.Hour)

	v := NewDelegatedVerifier(tokens, newStubUserRepo(nil))
	for _, token := range []string{"", "garbage", foreign} {
		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	}
}

func TestDelegatedVerifier_StoreError(t *testing.T) {
	tokens, _ := NewTokenService("andes-secret")
	token, _ := tokens.IssueSessionToken("u1", "x", "", nil, time.Hour)
	storeErr := errors.New("mongo unavailable")

	_, err := NewDelegatedVerifier(tokens, failingExistsRepo{newStubUserRepo(nil), storeErr}).Verify(context.Background(), token)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrSessionExpired)
}
