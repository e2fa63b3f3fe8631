package telegram

import "strconv"

// FallbackIdentity is used when the host platform supplies no user payload.
// Orders placed under it cannot be tied back to a shopper; the gateway treats
// it as an unregistered identity.
const FallbackIdentity = "USER"

// User is the identity payload the host platform hands the app at launch.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Identity returns the external identity string used on orders, falling back
// to FallbackIdentity for a missing or zero-id payload.
func (u *User) Identity() string {
	if u == nil || u.ID == 0 {
		return FallbackIdentity
	}
	return strconv.FormatInt(u.ID, 10)
}

// Haptics is the host's tactile feedback capability. Implementations bridge
// to the platform; the default does nothing.
type Haptics interface {
	Success()
	Warning()
	Error()
}

// NoopHaptics is the Haptics used when no host bridge is attached.
type NoopHaptics struct{}

func (NoopHaptics) Success() {}
func (NoopHaptics) Warning() {}
func (NoopHaptics) Error()   {}

// Wallet is the wallet-connect capability: whether a wallet is linked and at
// which address. Connecting and disconnecting stay with the host UI.
type Wallet interface {
	Connected() bool
	Address() string
}
