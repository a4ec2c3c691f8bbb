package fido

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal"
)

// Config names the relying party.
type Config struct {
	RPID          string
	RPDisplayName string
	RPOrigins     []string
}

// Service orchestrates WebAuthn ceremonies. Safe for concurrent use.
type Service struct {
	web        *webauthn.WebAuthn
	engine     *goCred.Engine
	store      goCred.CredentialStore
	challenges goCred.ChallengeStore
}

// NewService wires a ceremony service to an engine and its credential
// store. The engine supplies the challenge store and the counter guard.
func NewService(cfg Config, engine *goCred.Engine, store goCred.CredentialStore) (*Service, error) {
	if engine == nil || store == nil {
		return nil, goCred.ErrEngineNotReady
	}
	web, err := webauthn.New(&webauthn.Config{
		RPID:          cfg.RPID,
		RPDisplayName: cfg.RPDisplayName,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		web:        web,
		engine:     engine,
		store:      store,
		challenges: engine.Challenges(),
	}, nil
}

// pendingCeremony is the challenge-store payload bridging begin and finish.
type pendingCeremony struct {
	Username string               `json:"username,omitempty"`
	Session  webauthn.SessionData `json:"session"`
}

// BeginRegistration issues creation options for a known user. The returned
// challenge ID must come back with the finish call.
func (s *Service) BeginRegistration(ctx context.Context, username string) (*protocol.CredentialCreation, string, error) {
	user, err := s.store.FindUserByName(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", goCred.ErrUserNotFound
	}

	options, session, err := s.web.BeginRegistration(newCeremonyUser(user))
	if err != nil {
		return nil, "", err
	}

	challengeID, err := s.savePending(ctx, pendingCeremony{Username: username, Session: *session})
	if err != nil {
		return nil, "", err
	}
	return options, challengeID, nil
}

// FinishRegistration verifies the client's attestation response and
// persists the new credential with the counter the authenticator reported.
func (s *Service) FinishRegistration(ctx context.Context, challengeID string, response io.Reader) (*goCred.AssertionCredential, error) {
	pending, err := s.takePending(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByName(ctx, pending.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, goCred.ErrUserNotFound
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(response)
	if err != nil {
		return nil, err
	}

	ceremony := newCeremonyUser(user)
	credential, err := s.web.CreateCredential(ceremony, pending.Session, parsed)
	if err != nil {
		return nil, err
	}

	record := &goCred.AssertionCredential{
		CredentialID:     credential.ID,
		UserHandle:       ceremony.WebAuthnID(),
		PublicKey:        credential.PublicKey,
		AttestationType:  credential.AttestationType,
		SignatureCounter: credential.Authenticator.SignCount,
		RegisteredAt:     time.Now().UTC(),
	}
	if err := s.engine.RegisterAssertionCredential(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// BeginLogin issues assertion options for a discoverable-credential login.
// No username up front: the authenticator's response names the credential.
func (s *Service) BeginLogin(ctx context.Context) (*protocol.CredentialAssertion, string, error) {
	options, session, err := s.web.BeginDiscoverableLogin()
	if err != nil {
		return nil, "", err
	}
	challengeID, err := s.savePending(ctx, pendingCeremony{Session: *session})
	if err != nil {
		return nil, "", err
	}
	return options, challengeID, nil
}

// FinishLogin verifies the assertion, then advances the stored signature
// counter through the engine's guard. The advancement is the replay gate:
// two logins presenting the same counter resolve to exactly one success.
func (s *Service) FinishLogin(ctx context.Context, challengeID string, response io.Reader) (*goCred.AssertionCredential, error) {
	pending, err := s.takePending(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(response)
	if err != nil {
		return nil, err
	}

	var matched *goCred.AssertionCredential
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		record, err := s.store.FindAssertionCredential(ctx, rawID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, goCred.ErrCredentialNotFound
		}
		matched = record
		return &ceremonyUser{
			id:          userHandle,
			credentials: []webauthn.Credential{credentialFromRecord(record)},
		}, nil
	}

	if _, err := s.web.ValidateDiscoverableLogin(handler, pending.Session, parsed); err != nil {
		return nil, err
	}
	if matched == nil {
		return nil, goCred.ErrCredentialNotFound
	}

	if err := s.engine.AdvanceAssertion(ctx, matched.CredentialID, matched.SignatureCounter); err != nil {
		return nil, err
	}
	matched.SignatureCounter++
	return matched, nil
}

// ResetCounter resynchronizes a credential's counter to zero. Called after
// a fresh primary-credential login when client-side state may have drifted.
func (s *Service) ResetCounter(ctx context.Context, credentialID []byte) error {
	return s.engine.ResetAssertionCounter(ctx, credentialID)
}

func (s *Service) savePending(ctx context.Context, pending pendingCeremony) (string, error) {
	payload, err := json.Marshal(pending)
	if err != nil {
		return "", err
	}
	challengeID, err := internal.NewChallengeID()
	if err != nil {
		return "", err
	}
	if err := s.challenges.Save(ctx, challengeID, payload); err != nil {
		return "", err
	}
	return challengeID, nil
}

func (s *Service) takePending(ctx context.Context, challengeID string) (pendingCeremony, error) {
	payload, err := s.challenges.Take(ctx, challengeID)
	if err != nil {
		if errors.Is(err, goCred.ErrChallengeNotFound) {
			return pendingCeremony{}, goCred.ErrChallengeNotFound
		}
		return pendingCeremony{}, err
	}
	var pending pendingCeremony
	if err := json.Unmarshal(payload, &pending); err != nil {
		return pendingCeremony{}, err
	}
	return pending, nil
}
