package panel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Simulator provisions accounts locally: random credentials, expiry from
// the plan table, no backend. Used when no panel API is configured.
type Simulator struct{}

func (Simulator) CreateAccount(ctx context.Context, plan Plan, userID int64, userName string) (Account, error) {
	now := time.Now()
	id := uuid.NewString()
	return Account{
		Username:  fmt.Sprintf("%s-%s", loginName(userName), id[:8]),
		Password:  uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		Package:   plan.Key,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(time.Duration(plan.Days) * 24 * time.Hour).UnixMilli(),
	}, nil
}

// loginName squeezes a display name into a lowercase ascii login stem.
func loginName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
