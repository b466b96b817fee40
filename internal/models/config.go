package models

// DefaultAPIBaseURL is the production vendor cloud. European deployments
// use https://euapi.ttlock.com instead.
const DefaultAPIBaseURL = "https://api.sciener.com"

// Config is the single persisted configuration record of the bridge.
// Field names mirror the on-disk JSON document exactly; every key is
// always present (missing keys are back-filled from defaults on load).
type Config struct {
	APIBaseURL   string `json:"api_base_url"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	PasswordMD5  string `json:"password_md5"` // lowercase hex digest, never the plaintext
	LastDateMS   string `json:"last_date_ms"` // decimal epoch-ms, diagnostic display only

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"` // stored but never consumed

	RawRegisterResponse string `json:"raw_register_response"`
	RawTokenResponse    string `json:"raw_token_response"`

	Locks []LockSummary `json:"locks"`

	LastLockError        string `json:"last_lock_error"`
	LastLockActionResult string `json:"last_lock_action_result"`
}

// LockSummary is one vendor-reported lock. JSON keys keep the vendor wire
// names so the bridge API passes them through unchanged to the host side.
type LockSummary struct {
	LockID           int64  `json:"lockId"`
	LockAlias        string `json:"lockAlias"`
	ElectricQuantity int    `json:"electricQuantity"` // battery percentage
	HasGateway       int    `json:"hasGateway"`       // vendor sends 1/0
	ModelNum         string `json:"modelNum,omitempty"`
	IsLocked         *bool  `json:"isLocked,omitempty"`
}

// DefaultConfig returns a record with every key present and the vendor
// endpoint pointing at the production cloud.
func DefaultConfig() Config {
	return Config{
		APIBaseURL: DefaultAPIBaseURL,
		Locks:      []LockSummary{},
	}
}
