package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	goCred "github.com/MrEthical07/goCred"
)

// Key layout:
//
//	<prefix>:user:<username>   HASH  user record, claims as a JSON field
//	<prefix>:rt:<value>        STRING username index for the active refresh value
//	<prefix>:cred:<id-b64url>  HASH  assertion credential record
//	<prefix>:events:<username> LIST  JSON refresh events, append-only
//
// The rt index always mirrors the refresh_token field of exactly one user
// hash; both are updated inside one Lua script. Scripts build the user key
// from the index value, so this store targets single-node deployments.

const rotateRefreshScript = `
local username = redis.call("GET", KEYS[1])
if not username then
  return 0
end
local userKey = ARGV[1] .. ":user:" .. username
local current = redis.call("HGET", userKey, "refresh_token")
if current ~= ARGV[2] then
  return 0
end
redis.call("HSET", userKey, "refresh_token", ARGV[3])
redis.call("HSET", userKey, "refresh_created", ARGV[4])
redis.call("HSET", userKey, "refresh_expires", ARGV[5])
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], username)
return 1
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

const setRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local old = redis.call("HGET", KEYS[1], "refresh_token")
if old and old ~= "" then
  redis.call("DEL", ARGV[1] .. ":rt:" .. old)
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[2])
redis.call("HSET", KEYS[1], "refresh_created", ARGV[3])
redis.call("HSET", KEYS[1], "refresh_expires", ARGV[4])
redis.call("SET", KEYS[2], ARGV[5])
return 1
`

var setRefreshLua = redis.NewScript(setRefreshScript)

const advanceCounterScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local counter = redis.call("HGET", KEYS[1], "counter")
if counter ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "counter", ARGV[2])
return 1
`

var advanceCounterLua = redis.NewScript(advanceCounterScript)

const setCounterScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
redis.call("HSET", KEYS[1], "counter", ARGV[1])
return 1
`

var setCounterLua = redis.NewScript(setCounterScript)

// Redis implements [goCred.CredentialStore] on a redis backend.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedis returns a store using the given client. An empty prefix
// defaults to "gc".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "gc"
	}
	return &Redis{redis: client, prefix: prefix}
}

func (s *Redis) userKey(username string) string {
	return s.prefix + ":user:" + username
}

func (s *Redis) refreshKey(value string) string {
	return s.prefix + ":rt:" + value
}

func (s *Redis) credKey(credentialID []byte) string {
	return s.prefix + ":cred:" + base64.RawURLEncoding.EncodeToString(credentialID)
}

func (s *Redis) eventsKey(username string) string {
	return s.prefix + ":events:" + username
}

// SaveUser creates or replaces a user record. Registration plumbing for
// callers that keep their whole user store in redis; the engine itself
// never calls it.
func (s *Redis) SaveUser(ctx context.Context, user *goCred.User) error {
	claims, err := json.Marshal(user.Claims)
	if err != nil {
		return err
	}
	fields := map[string]any{
		"id":              user.ID,
		"username":        user.Username,
		"claims":          string(claims),
		"password_hash":   base64.StdEncoding.EncodeToString(user.PasswordHash),
		"password_salt":   base64.StdEncoding.EncodeToString(user.PasswordSalt),
		"refresh_token":   user.RefreshToken,
		"refresh_created": unixOrZero(user.RefreshTokenCreated),
		"refresh_expires": unixOrZero(user.RefreshTokenExpires),
	}
	if err := s.redis.HSet(ctx, s.userKey(user.Username), fields).Err(); err != nil {
		return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	if user.RefreshToken != "" {
		if err := s.redis.Set(ctx, s.refreshKey(user.RefreshToken), user.Username, 0).Err(); err != nil {
			return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (s *Redis) FindUserByName(ctx context.Context, username string) (*goCred.User, error) {
	fields, err := s.redis.HGetAll(ctx, s.userKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeUser(fields)
}

func (s *Redis) FindUserByRefreshToken(ctx context.Context, tokenValue string) (*goCred.User, error) {
	if tokenValue == "" {
		return nil, nil
	}
	username, err := s.redis.Get(ctx, s.refreshKey(tokenValue)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	user, err := s.FindUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshToken != tokenValue {
		// Stale index entry; treat as no match.
		return nil, nil
	}
	return user, nil
}

func (s *Redis) SetActiveRefreshToken(ctx context.Context, username string, token goCred.RefreshToken) error {
	result, err := setRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.userKey(username), s.refreshKey(token.Token)},
		s.prefix,
		token.Token,
		strconv.FormatInt(token.Created.Unix(), 10),
		strconv.FormatInt(token.Expires.Unix(), 10),
		username,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	if result == -1 {
		return goCred.ErrUserNotFound
	}
	return nil
}

func (s *Redis) RotateRefreshToken(ctx context.Context, presented string, next goCred.RefreshToken) (*goCred.User, error) {
	result, err := rotateRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.refreshKey(presented), s.refreshKey(next.Token)},
		s.prefix,
		presented,
		next.Token,
		strconv.FormatInt(next.Created.Unix(), 10),
		strconv.FormatInt(next.Expires.Unix(), 10),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	if result != 1 {
		return nil, goCred.ErrRefreshInvalid
	}
	return s.FindUserByRefreshToken(ctx, next.Token)
}

func (s *Redis) FindAssertionCredential(ctx context.Context, credentialID []byte) (*goCred.AssertionCredential, error) {
	fields, err := s.redis.HGetAll(ctx, s.credKey(credentialID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeCredential(fields)
}

func (s *Redis) SaveAssertionCredential(ctx context.Context, cred *goCred.AssertionCredential) error {
	fields := map[string]any{
		"credential_id": base64.StdEncoding.EncodeToString(cred.CredentialID),
		"user_handle":   base64.StdEncoding.EncodeToString(cred.UserHandle),
		"public_key":    base64.StdEncoding.EncodeToString(cred.PublicKey),
		"att_type":      cred.AttestationType,
		"counter":       strconv.FormatUint(uint64(cred.SignatureCounter), 10),
		"registered_at": unixOrZero(cred.RegisteredAt),
	}
	if err := s.redis.HSet(ctx, s.credKey(cred.CredentialID), fields).Err(); err != nil {
		return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Redis) SetAssertionCounter(ctx context.Context, credentialID []byte, counter uint32) error {
	result, err := setCounterLua.Run(
		ctx,
		s.redis,
		[]string{s.credKey(credentialID)},
		strconv.FormatUint(uint64(counter), 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	if result == -1 {
		return goCred.ErrCredentialNotFound
	}
	return nil
}

func (s *Redis) AdvanceAssertionCounter(ctx context.Context, credentialID []byte, presented uint32) error {
	result, err := advanceCounterLua.Run(
		ctx,
		s.redis,
		[]string{s.credKey(credentialID)},
		strconv.FormatUint(uint64(presented), 10),
		strconv.FormatUint(uint64(presented)+1, 10),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	switch result {
	case -1:
		return goCred.ErrCredentialNotFound
	case 0:
		return goCred.ErrCounterMismatch
	}
	return nil
}

func (s *Redis) AppendRefreshEvent(ctx context.Context, event goCred.RefreshEvent) error {
	encoded, err := json.Marshal(redisEvent{
		ID:        event.ID,
		Username:  event.Username,
		UserAgent: event.UserAgent,
		Reason:    uint8(event.Reason),
		Timestamp: event.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}
	if err := s.redis.RPush(ctx, s.eventsKey(event.Username), encoded).Err(); err != nil {
		return fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Redis) RefreshEvents(ctx context.Context, username string) ([]goCred.RefreshEvent, error) {
	raw, err := s.redis.LRange(ctx, s.eventsKey(username), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goCred.ErrStoreUnavailable, err)
	}
	events := make([]goCred.RefreshEvent, 0, len(raw))
	for _, item := range raw {
		var re redisEvent
		if err := json.Unmarshal([]byte(item), &re); err != nil {
			return nil, err
		}
		events = append(events, goCred.RefreshEvent{
			ID:        re.ID,
			Username:  re.Username,
			UserAgent: re.UserAgent,
			Reason:    goCred.IssueReason(re.Reason),
			Timestamp: time.Unix(re.Timestamp, 0).UTC(),
		})
	}
	return events, nil
}

type redisEvent struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	UserAgent string `json:"user_agent,omitempty"`
	Reason    uint8  `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

func unixOrZero(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func decodeUser(fields map[string]string) (*goCred.User, error) {
	user := &goCred.User{
		ID:           fields["id"],
		Username:     fields["username"],
		RefreshToken: fields["refresh_token"],
	}
	if raw := fields["claims"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &user.Claims); err != nil {
			return nil, err
		}
	}
	var err error
	if user.PasswordHash, err = base64.StdEncoding.DecodeString(fields["password_hash"]); err != nil {
		return nil, err
	}
	if user.PasswordSalt, err = base64.StdEncoding.DecodeString(fields["password_salt"]); err != nil {
		return nil, err
	}
	user.RefreshTokenCreated = timeField(fields["refresh_created"])
	user.RefreshTokenExpires = timeField(fields["refresh_expires"])
	return user, nil
}

func decodeCredential(fields map[string]string) (*goCred.AssertionCredential, error) {
	cred := &goCred.AssertionCredential{
		AttestationType: fields["att_type"],
	}
	var err error
	if cred.CredentialID, err = base64.StdEncoding.DecodeString(fields["credential_id"]); err != nil {
		return nil, err
	}
	if cred.UserHandle, err = base64.StdEncoding.DecodeString(fields["user_handle"]); err != nil {
		return nil, err
	}
	if cred.PublicKey, err = base64.StdEncoding.DecodeString(fields["public_key"]); err != nil {
		return nil, err
	}
	counter, err := strconv.ParseUint(fields["counter"], 10, 32)
	if err != nil {
		return nil, err
	}
	cred.SignatureCounter = uint32(counter)
	cred.RegisteredAt = timeField(fields["registered_at"])
	return cred, nil
}

func timeField(raw string) time.Time {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
