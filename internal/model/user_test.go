package model_test

import (
	"testing"

	"github.com/hostedid/accounts/internal/model"
	"github.com/hostedid/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestUserAbsoluteURL(t *testing.T) {
	user := testutil.NewUser()

	assert.Equal(t, "/users/"+user.ID+"/", user.AbsoluteURL())
}

func TestUserAbsoluteURLLiteral(t *testing.T) {
	user := model.User{ID: "42"}

	assert.Equal(t, "/users/42/", user.AbsoluteURL())
}
