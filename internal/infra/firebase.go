// README: Firebase ID-token verification; resolves a token to the unirides user it belongs to.
package infra

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"unirides/internal/modules/user"
	"unirides/internal/types"
)

// RoleClaim is the custom claim set on driver and admin accounts.
const RoleClaim = "role"

var ErrInvalidToken = errors.New("invalid id token")

// TokenVerifier turns a raw Firebase ID token into the calling user.
// Errors wrapping user.ErrUnknownKind mean the token is genuine but carries
// a role unirides does not know.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (user.Ref, error)
}

type firebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier uses credentialsFile when set and application-default
// credentials otherwise. projectID is required for token audience checks.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (TokenVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) Verify(ctx context.Context, idToken string) (user.Ref, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return user.Ref{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return RefFromClaims(token.UID, token.Claims)
}

// RefFromClaims maps a verified uid and its custom claims to a user.Ref.
// Accounts without a role claim are passengers, who sign up without any
// admin step.
func RefFromClaims(uid string, claims map[string]interface{}) (user.Ref, error) {
	if uid == "" {
		return user.Ref{}, ErrInvalidToken
	}
	raw, present := claims[RoleClaim]
	if !present {
		return user.Ref{ID: types.ID(uid), Kind: user.KindPassenger}, nil
	}
	role, ok := raw.(string)
	if !ok {
		return user.Ref{}, fmt.Errorf("role claim %T: %w", raw, user.ErrUnknownKind)
	}
	kind, err := user.ParseKind(role)
	if err != nil {
		return user.Ref{}, fmt.Errorf("role claim %q: %w", role, err)
	}
	return user.Ref{ID: types.ID(uid), Kind: kind}, nil
}
