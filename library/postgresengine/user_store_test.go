package postgresengine_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/testutil/helper"
)

func Test_CreateUser_And_FindUserByID(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	created, err := store.CreateUser(ctx, library.CreateUser{
		Name:     "Ada Lovelace",
		Email:    fmt.Sprintf("ada-%s@example.com", uuid.NewString()),
		Password: "correct horse battery staple",
	})

	// assert - new accounts start with the User role
	require.NoError(t, err, "error creating the user")
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, library.RoleUser, created.Role)

	found, err := store.FindUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Ada Lovelace", found.Name)
	assert.Equal(t, created.Email, found.Email)
	assert.Equal(t, library.RoleUser, found.Role)
}

func Test_FindUserByID_When_UserDoesNotExist(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	_, err := store.FindUserByID(ctx, helper.GivenUniqueID(t))

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_UpdateUserRole(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	userID := helper.GivenUser(t, ctx, pool)

	// act
	err := store.UpdateUserRole(ctx, library.UpdateUserRole{UserID: userID, Role: library.RoleAdmin})

	// assert
	assert.NoError(t, err, "error updating the role")

	user, err := store.FindUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, library.RoleAdmin, user.Role)
	assert.True(t, user.Role.IsAdmin())
}

func Test_UpdateUserRole_When_UserDoesNotExist(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	err := store.UpdateUserRole(ctx, library.UpdateUserRole{
		UserID: helper.GivenUniqueID(t),
		Role:   library.RoleAdmin,
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_UpdateUserPassword_When_CurrentPasswordMatches(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	email := fmt.Sprintf("user-%s@example.com", uuid.NewString())
	userID := helper.GivenUserWithCredentials(t, ctx, pool, email, "old-password")

	// act
	err := store.UpdateUserPassword(ctx, library.UpdateUserPassword{
		UserID:          userID,
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
	})

	// assert - the old password stops working, the new one is accepted
	assert.NoError(t, err, "error updating the password")

	authStore := givenAuthStore(t, store)

	_, err = authStore.VerifyUser(ctx, email, "old-password")
	assert.ErrorIs(t, err, library.ErrUnauthorized)

	verifiedID, err := authStore.VerifyUser(ctx, email, "new-password")
	assert.NoError(t, err)
	assert.Equal(t, userID, verifiedID)
}

func Test_UpdateUserPassword_When_CurrentPasswordDoesNotMatch(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	userID := helper.GivenUser(t, ctx, pool)

	// act
	err := store.UpdateUserPassword(ctx, library.UpdateUserPassword{
		UserID:          userID,
		CurrentPassword: "wrong-password",
		NewPassword:     "new-password",
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrUnauthorized)
}

func Test_UpdateUserPassword_When_UserDoesNotExist(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	err := store.UpdateUserPassword(ctx, library.UpdateUserPassword{
		UserID:          helper.GivenUniqueID(t),
		CurrentPassword: "irrelevant",
		NewPassword:     "new-password",
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_DeleteUser(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	userID := helper.GivenUser(t, ctx, pool)

	// act
	err := store.DeleteUser(ctx, library.DeleteUser{UserID: userID})

	// assert
	assert.NoError(t, err, "error deleting the user")

	_, err = store.FindUserByID(ctx, userID)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_DeleteUser_When_UserDoesNotExist(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	err := store.DeleteUser(ctx, library.DeleteUser{UserID: helper.GivenUniqueID(t)})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_FindAllUsers(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	firstID := helper.GivenUser(t, ctx, pool)
	secondID := helper.GivenUser(t, ctx, pool)

	// act
	users, err := store.FindAllUsers(ctx)

	// assert
	assert.NoError(t, err)
	require.Len(t, users, 2)

	foundIDs := []uuid.UUID{users[0].ID, users[1].ID}
	assert.Contains(t, foundIDs, firstID)
	assert.Contains(t, foundIDs, secondID)
}
