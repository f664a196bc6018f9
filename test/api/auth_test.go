package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/gamenight/tracker/pkg/client"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Register_Then_Login_Issues_A_Session(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api := client.New(fixture.baseURL)
	email := fmt.Sprintf("%s@example.com", uuid.NewString())

	require.NoError(t, api.Register(ctx, "Ana", "Horvat", email, "password-123"))

	// Act
	user, err := api.Login(ctx, email, "password-123")

	// Assert
	require.NoError(t, err)
	require.Equal(t, email, user.Email)
	require.NotEmpty(t, api.SessionCookie())

	_, err = api.Sessions(ctx)
	require.NoError(t, err)
}

func Test_Register_With_Taken_Email_Is_A_Conflict(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api := client.New(fixture.baseURL)
	email := fmt.Sprintf("%s@example.com", uuid.NewString())

	require.NoError(t, api.Register(ctx, "Ana", "Horvat", email, "password-123"))

	// Act
	err := api.Register(ctx, "Boris", "Horvat", email, "password-456")

	// Assert
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Conflict())
}

func Test_Login_With_Wrong_Password_Is_Unauthorized(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api := client.New(fixture.baseURL)
	email := fmt.Sprintf("%s@example.com", uuid.NewString())

	require.NoError(t, api.Register(ctx, "Ana", "Horvat", email, "password-123"))

	// Act
	_, err := api.Login(ctx, email, "wrong-password")

	// Assert
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
}

func Test_Three_Failed_Logins_Lock_The_Account(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api := client.New(fixture.baseURL)
	email := fmt.Sprintf("%s@example.com", uuid.NewString())

	require.NoError(t, api.Register(ctx, "Ana", "Horvat", email, "password-123"))

	for i := 0; i < 3; i++ {
		_, err := api.Login(ctx, email, "wrong-password")
		require.Error(t, err)
	}

	// Act - even the right password is rejected now.
	_, err := api.Login(ctx, email, "password-123")

	// Assert
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
}

func Test_Logout_Invalidates_The_Session(t *testing.T) {
	// Arrange
	ctx := context.Background()
	api, _ := newUser(t, "Ana")

	cookie := api.SessionCookie()
	require.NotEmpty(t, cookie)

	// Act
	require.NoError(t, api.Logout(ctx))

	// Assert - the old cookie no longer authenticates.
	stale := client.New(fixture.baseURL, client.WithSessionCookie(cookie))

	_, err := stale.Sessions(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
}
