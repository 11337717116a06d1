package domain

// AuthResponse is returned on a fully successful login: the signed bearer
// token plus a public view of the account's verification and 2FA status.
type AuthResponse struct {
	Token            string `json:"token"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	EmailVerified    bool   `json:"email_verified"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

// TwoFactorSetupResponse carries a freshly generated pending secret back to
// the client. The secret doubles as the manual entry key for authenticator
// apps that cannot scan the QR code.
type TwoFactorSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	Issuer          string `json:"issuer"`
	Account         string `json:"account"`
}
