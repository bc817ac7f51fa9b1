// Package secrets retrieves named secrets from Infisical using machine
// identity (universal auth) credentials taken from the environment.
package secrets

import (
	"context"
	"fmt"
	"os"

	infisical "github.com/infisical/go-sdk"
	"github.com/infisical/go-sdk/packages/models"
)

// Environment variables carrying the machine identity and project.
const (
	EnvClientID     = "INF_CLIENT"
	EnvClientSecret = "INF_SECRET"
	EnvProjectID    = "INF_PROJECT"
)

// DefaultEnvironment is the Infisical environment slug used when none is
// given.
const DefaultEnvironment = "dev"

// Secret is one retrieved secret.
type Secret struct {
	Name        string
	Value       string
	Environment string
}

// store is the slice of the Infisical SDK the client needs. Tests substitute
// a fake.
type store interface {
	Retrieve(options infisical.RetrieveSecretOptions) (models.Secret, error)
}

// Client retrieves secrets from one Infisical project.
type Client struct {
	store     store
	projectID string
}

// New logs in with universal auth and returns a client bound to projectID.
// siteURL is optional; empty uses the public Infisical instance.
func New(ctx context.Context, clientID, clientSecret, projectID, siteURL string) (*Client, error) {
	if clientID == "" || clientSecret == "" || projectID == "" {
		return nil, fmt.Errorf("client id, client secret and project id are all required")
	}

	sdk := infisical.NewInfisicalClient(ctx, infisical.Config{SiteUrl: siteURL})
	if _, err := sdk.Auth().UniversalAuthLogin(clientID, clientSecret); err != nil {
		return nil, fmt.Errorf("infisical login failed: %w", err)
	}

	return &Client{store: sdk.Secrets(), projectID: projectID}, nil
}

// NewFromEnv builds a client from INF_CLIENT, INF_SECRET and INF_PROJECT.
// All three must be set; the check happens before any network call.
func NewFromEnv(ctx context.Context, siteURL string) (*Client, error) {
	for _, name := range []string{EnvClientID, EnvClientSecret, EnvProjectID} {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
	}
	return New(ctx, os.Getenv(EnvClientID), os.Getenv(EnvClientSecret), os.Getenv(EnvProjectID), siteURL)
}

// Get retrieves each named secret from the given environment, in order.
// Empty environment falls back to DefaultEnvironment.
func (c *Client) Get(ctx context.Context, names []string, environment string) ([]Secret, error) {
	if environment == "" {
		environment = DefaultEnvironment
	}

	out := make([]Secret, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		secret, err := c.store.Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   name,
			ProjectID:   c.projectID,
			Environment: environment,
			SecretPath:  "/",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve secret %s: %w", name, err)
		}
		out = append(out, Secret{Name: secret.SecretKey, Value: secret.SecretValue, Environment: environment})
	}
	return out, nil
}
