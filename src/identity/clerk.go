package identity

import (
	"context"
	"encoding/json"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/gawwe-id/oknum/src/types"
)

// ClerkPatcher stores the role in the Clerk user's public metadata so it is
// carried in session tokens.
type ClerkPatcher struct {
	users *user.Client
}

// NewClerkPatcher returns nil when no secret key is configured.
func NewClerkPatcher(secretKey string) *ClerkPatcher {
	if secretKey == "" {
		return nil
	}
	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String(secretKey)
	return &ClerkPatcher{users: user.NewClient(cfg)}
}

func (p *ClerkPatcher) SetRole(ctx context.Context, userID string, role types.Role) error {
	b, err := json.Marshal(types.Metadata{"role": role})
	if err != nil {
		return err
	}
	metadata := json.RawMessage(b)
	_, err = p.users.UpdateMetadata(ctx, userID, &user.UpdateMetadataParams{
		PublicMetadata: &metadata,
	})
	return err
}
