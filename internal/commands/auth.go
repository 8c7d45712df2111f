package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gidevo/gidevo-api-tool/internal/auth"
)

// Login stores an API token. Without a token one is prompted for.
func (c *Controller) Login(ctx context.Context, token string) error {
	if token == "" {
		if c.deps.Prompter == nil {
			return errors.New("no token given (use --token or GIDEVO_API_TOKEN)")
		}
		var err error
		if token, err = c.deps.Prompter.Token(); err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	out := c.deps.Output
	session, err := c.deps.Auth.Login(token)
	if err != nil {
		out.Error("Authentication failed: %v", err)
		return err
	}

	c.deps.Tracker.Track(ctx, "login")
	out.Success("Successfully authenticated!")
	out.KeyValue("Token expires at", session.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Logout removes the stored credentials
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.deps.Auth.Logout(); err != nil {
		return err
	}
	c.deps.Output.Success("Logged out and credentials removed.")
	return nil
}

// WhoAmI prints the current authentication status
func (c *Controller) WhoAmI(ctx context.Context) error {
	out := c.deps.Output

	status, err := c.deps.Auth.WhoAmI()
	if errors.Is(err, auth.ErrNotAuthenticated) {
		out.Warn("Not authenticated. Please login first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	if status.Source == auth.SourceEnv {
		out.Success("Authenticated with GIDEVO_API_TOKEN")
		return nil
	}
	out.Success("Authenticated as: %s", status.UserID)
	out.KeyValue("Token expires at", status.ExpiresAt.Format(time.RFC3339))
	return nil
}
