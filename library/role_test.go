package library_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/librarium-io/library-manager-go/library"
)

func Test_ParseRole(t *testing.T) {
	admin, err := library.ParseRole("Admin")
	assert.NoError(t, err)
	assert.Equal(t, library.RoleAdmin, admin)
	assert.True(t, admin.IsAdmin())

	user, err := library.ParseRole("User")
	assert.NoError(t, err)
	assert.Equal(t, library.RoleUser, user)
	assert.False(t, user.IsAdmin())

	_, err = library.ParseRole("Librarian")
	assert.Error(t, err)
}
