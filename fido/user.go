package fido

import (
	"github.com/go-webauthn/webauthn/webauthn"

	goCred "github.com/MrEthical07/goCred"
)

// ceremonyUser adapts a stored user record to the webauthn.User contract.
// The credential slice carries only what the current ceremony needs: empty
// for registration, the single matched credential for login.
type ceremonyUser struct {
	id          []byte
	name        string
	credentials []webauthn.Credential
}

var _ webauthn.User = (*ceremonyUser)(nil)

func newCeremonyUser(user *goCred.User, credentials ...webauthn.Credential) *ceremonyUser {
	return &ceremonyUser{
		id:          []byte(user.ID),
		name:        user.Username,
		credentials: credentials,
	}
}

func (u *ceremonyUser) WebAuthnID() []byte {
	return u.id
}

func (u *ceremonyUser) WebAuthnName() string {
	return u.name
}

func (u *ceremonyUser) WebAuthnDisplayName() string {
	return u.name
}

func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

// WebAuthnIcon satisfies the deprecated icon accessor still present in the
// webauthn.User interface; the library ignores its value.
func (u *ceremonyUser) WebAuthnIcon() string {
	return ""
}

func credentialFromRecord(record *goCred.AssertionCredential) webauthn.Credential {
	return webauthn.Credential{
		ID:              record.CredentialID,
		PublicKey:       record.PublicKey,
		AttestationType: record.AttestationType,
		Authenticator: webauthn.Authenticator{
			SignCount: record.SignatureCounter,
		},
	}
}
