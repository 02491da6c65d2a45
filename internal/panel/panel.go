package panel

import "context"

// Account is one provisioned hosting-panel login, as recorded in the
// ledger. Timestamps are epoch milliseconds.
type Account struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	UserID    int64  `json:"userId"`
	UserName  string `json:"userName"`
	Package   string `json:"package"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Plan is one sellable panel package.
type Plan struct {
	Key   string
	Title string
	RAM   string
	Disk  string
	CPU   string
	Days  int
}

// Plans is the package table the create-panel menu offers, in menu order.
var Plans = []Plan{
	{Key: "1gb", Title: "Panel 1 GB", RAM: "1 GB", Disk: "5 GB", CPU: "50%", Days: 30},
	{Key: "2gb", Title: "Panel 2 GB", RAM: "2 GB", Disk: "10 GB", CPU: "75%", Days: 30},
	{Key: "4gb", Title: "Panel 4 GB", RAM: "4 GB", Disk: "20 GB", CPU: "100%", Days: 30},
	{Key: "8gb", Title: "Panel 8 GB", RAM: "8 GB", Disk: "40 GB", CPU: "150%", Days: 30},
	{Key: "unli", Title: "Panel Unlimited", RAM: "Unlimited", Disk: "Unlimited", CPU: "200%", Days: 30},
}

// LookupPlan finds a plan by key.
func LookupPlan(key string) (Plan, bool) {
	for _, p := range Plans {
		if p.Key == key {
			return p, true
		}
	}
	return Plan{}, false
}

// Provisioner creates panel accounts. The bot ships two implementations:
// an HTTP client for a real panel backend and a simulator for running
// without one.
type Provisioner interface {
	CreateAccount(ctx context.Context, plan Plan, userID int64, userName string) (Account, error)
}
