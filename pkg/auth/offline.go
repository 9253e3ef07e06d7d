package auth

import (
	"crypto/md5"

	"github.com/google/uuid"

	"github.com/underlayhq/mcrelay/pkg/proto"
)

// OfflineProvider never challenges the client; it derives a deterministic
// UUID from the username the same way vanilla offline-mode servers do.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

func (OfflineProvider) EncryptionStart(name string) (StartDecision, error) {
	return StartDecision{Skip: &AuthSucceeded{
		Username: name,
		UUID:     OfflineUUID(name).String(),
	}}, nil
}

func (OfflineProvider) EncryptionResponse(any, *proto.EncryptionResponse) (AuthSucceeded, error) {
	return AuthSucceeded{}, proto.NewAuthError(proto.Unsupported, nil)
}

// OfflineUUID computes the version-3 UUID vanilla Minecraft derives from
// an offline-mode username: MD5("OfflinePlayer:"+name) with the version
// and variant bits forced the way RFC 4122 v3 UUIDs require.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0F | 0x30
	sum[8] = sum[8]&0x3F | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id
}
