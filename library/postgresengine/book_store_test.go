package postgresengine_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/testutil/helper"
)

func Test_CreateBook_And_FindBookByID(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	ownerID := helper.GivenUser(t, ctx, pool)

	// act
	bookID, err := store.CreateBook(ctx, library.CreateBook{
		Title:       "The Go Programming Language",
		Author:      "Donovan and Kernighan",
		ISBN:        "978-0134190440",
		Description: "The definitive introduction",
		OwnedBy:     ownerID,
	})

	// assert
	require.NoError(t, err, "error creating the book")

	book, err := store.FindBookByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, bookID, book.ID)
	assert.Equal(t, "The Go Programming Language", book.Title)
	assert.Equal(t, "Donovan and Kernighan", book.Author)
	assert.Equal(t, "978-0134190440", book.ISBN)
	assert.Equal(t, ownerID, book.Owner.UserID)
	assert.Equal(t, "Test User", book.Owner.Name)
}

func Test_FindBookByID_When_BookDoesNotExist(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	_, err := store.FindBookByID(ctx, helper.GivenUniqueID(t))

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_UpdateBook_When_RequestedByTheOwner(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	ownerID := helper.GivenUser(t, ctx, pool)
	bookID := helper.GivenBook(t, ctx, pool, ownerID)

	// act
	err := store.UpdateBook(ctx, library.UpdateBook{
		BookID:      bookID,
		Title:       "Updated Title",
		Author:      "Updated Author",
		ISBN:        "978-1111111111",
		Description: "Updated Description",
		RequestedBy: ownerID,
	})

	// assert
	assert.NoError(t, err, "error updating the book")

	book, err := store.FindBookByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, "Updated Title", book.Title)
	assert.Equal(t, "Updated Author", book.Author)
	assert.Equal(t, "978-1111111111", book.ISBN)
	assert.Equal(t, "Updated Description", book.Description)
}

func Test_UpdateBook_When_RequestedByAnotherUser(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	ownerID := helper.GivenUser(t, ctx, pool)
	otherUserID := helper.GivenUser(t, ctx, pool)
	bookID := helper.GivenBook(t, ctx, pool, ownerID)

	// act
	err := store.UpdateBook(ctx, library.UpdateBook{
		BookID:      bookID,
		Title:       "Hijacked Title",
		RequestedBy: otherUserID,
	})

	// assert - a non-owner update behaves like a missing book
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)

	book, err := store.FindBookByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, "Test Title", book.Title, "the book must be unchanged")
}

func Test_DeleteBook_When_RequestedByTheOwner(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	ownerID := helper.GivenUser(t, ctx, pool)
	bookID := helper.GivenBook(t, ctx, pool, ownerID)

	// act
	err := store.DeleteBook(ctx, library.DeleteBook{BookID: bookID, RequestedBy: ownerID})

	// assert
	assert.NoError(t, err, "error deleting the book")

	_, err = store.FindBookByID(ctx, bookID)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_DeleteBook_When_RequestedByAnotherUser(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	ownerID := helper.GivenUser(t, ctx, pool)
	otherUserID := helper.GivenUser(t, ctx, pool)
	bookID := helper.GivenBook(t, ctx, pool, ownerID)

	// act
	err := store.DeleteBook(ctx, library.DeleteBook{BookID: bookID, RequestedBy: otherUserID})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)

	_, err = store.FindBookByID(ctx, bookID)
	assert.NoError(t, err, "the book must still exist")
}

func Test_ListBooks_PaginatesNewestFirst(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()
	pool := wrapper.GetPool()

	// arrange
	const numBooks = 5

	ownerID := helper.GivenUser(t, ctx, pool)
	for i := 0; i < numBooks; i++ {
		_, err := store.CreateBook(ctx, library.CreateBook{
			Title:       fmt.Sprintf("Volume %d", i),
			Author:      "Test Author",
			ISBN:        fmt.Sprintf("978-%010d", i),
			Description: "Test Description",
			OwnedBy:     ownerID,
		})
		require.NoError(t, err)
	}

	// act
	firstPage, errFirst := store.ListBooks(ctx, 2, 0)
	secondPage, errSecond := store.ListBooks(ctx, 2, 2)

	// assert
	assert.NoError(t, errFirst)
	assert.Equal(t, int64(numBooks), firstPage.Total)
	assert.Equal(t, int64(2), firstPage.Limit)
	assert.Equal(t, int64(0), firstPage.Offset)
	require.Len(t, firstPage.Items, 2)

	assert.NoError(t, errSecond)
	assert.Equal(t, int64(numBooks), secondPage.Total)
	require.Len(t, secondPage.Items, 2)

	// No overlap between the pages.
	for _, first := range firstPage.Items {
		for _, second := range secondPage.Items {
			assert.NotEqual(t, first.ID, second.ID)
		}
	}
}

func Test_ListBooks_When_CatalogIsEmpty(t *testing.T) {
	// setup
	ctx, wrapper, cleanup := setupCheckoutTestEnvironment(t)
	defer cleanup()

	store := wrapper.GetStore()

	// act
	page, err := store.ListBooks(ctx, 10, 0)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Items)
}
