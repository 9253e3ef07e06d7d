package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/underlayhq/mcrelay/pkg/proto"
)

const hasJoinedURL = "https://sessionserver.mojang.com/session/minecraft/hasJoined"

// mojangHandle is the opaque per-attempt state the Mojang provider hands
// back from EncryptionStart. Only MojangProvider ever type-asserts it.
type mojangHandle struct {
	verifyToken []byte
	name        string
}

// MojangProvider authenticates against the Mojang session service: it
// decrypts the client's verify token and shared secret with its RSA
// private key, then asks sessionserver.mojang.com whether the named
// player actually joined with that shared secret.
type MojangProvider struct {
	priv   *rsa.PrivateKey
	pubDER []byte

	http *fasthttp.Client

	mu    sync.Mutex
	cache *lru.Cache // verify-token bytes -> AuthSucceeded, de-dupes client retries within one handshake
}

// NewMojangProvider generates a fresh 1024-bit RSA key pair that this
// provider holds for the lifetime of the process.
func NewMojangProvider() (*MojangProvider, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, fmt.Errorf("generating proxy RSA key pair: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshaling proxy public key: %w", err)
	}
	return &MojangProvider{
		priv:   priv,
		pubDER: pubDER,
		http:   &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
		cache:  lru.New(256),
	}, nil
}

func (m *MojangProvider) EncryptionStart(name string) (StartDecision, error) {
	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return StartDecision{}, fmt.Errorf("generating verify token: %w", err)
	}
	return StartDecision{
		Request: &proto.EncryptionRequest{
			ServerID:    "",
			PublicKey:   m.pubDER,
			VerifyToken: token,
		},
		Handle: &mojangHandle{verifyToken: token, name: name},
	}, nil
}

func (m *MojangProvider) EncryptionResponse(handle any, res *proto.EncryptionResponse) (AuthSucceeded, error) {
	h, ok := handle.(*mojangHandle)
	if !ok {
		return AuthSucceeded{}, proto.NewAuthError(proto.Unsupported, nil)
	}

	if cached, ok := m.cacheGet(h.verifyToken); ok {
		return cached, nil
	}

	verifyToken, err := rsa.DecryptPKCS1v15(rand.Reader, m.priv, res.VerifyToken)
	if err != nil {
		return AuthSucceeded{}, proto.NewAuthError(proto.RsaFailure, err)
	}
	if !bytes.Equal(verifyToken, h.verifyToken) {
		return AuthSucceeded{}, proto.NewAuthError(proto.BadVerifyToken, nil)
	}

	sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, m.priv, res.SharedSecret)
	if err != nil {
		return AuthSucceeded{}, proto.NewAuthError(proto.RsaFailure, err)
	}
	if len(sharedSecret) != 16 {
		return AuthSucceeded{}, proto.NewAuthError(proto.BadSharedSecret, nil)
	}

	serverHash := minecraftHexDigest(sharedSecret, m.pubDER)
	result, err := m.hasJoined(h.name, serverHash)
	if err != nil {
		return AuthSucceeded{}, proto.NewAuthError(proto.TransportFailure, err)
	}
	m.cachePut(h.verifyToken, result)
	return result, nil
}

func (m *MojangProvider) hasJoined(username, serverHash string) (AuthSucceeded, error) {
	url := fmt.Sprintf("%s?username=%s&serverId=%s&unsigned=false", hasJoinedURL, username, serverHash)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := m.http.Do(req, resp); err != nil {
		return AuthSucceeded{}, fmt.Errorf("contacting session service: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return AuthSucceeded{}, fmt.Errorf("session service returned status %d", resp.StatusCode())
	}

	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return AuthSucceeded{}, fmt.Errorf("decoding hasJoined response: %w", err)
	}
	id, err := uuid.Parse(body.ID)
	if err != nil {
		return AuthSucceeded{}, fmt.Errorf("parsing hasJoined uuid %q: %w", body.ID, err)
	}
	return AuthSucceeded{Username: body.Name, UUID: id.String()}, nil
}

func (m *MojangProvider) cacheGet(token []byte) (AuthSucceeded, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache.Get(string(token))
	if !ok {
		return AuthSucceeded{}, false
	}
	return v.(AuthSucceeded), true
}

func (m *MojangProvider) cachePut(token []byte, result AuthSucceeded) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(string(token), result)
}

// minecraftHexDigest is the two's-complement-signed hex rendering the
// Mojang session protocol uses, computed over SHA1(sharedSecret ||
// publicKeyDER).
func minecraftHexDigest(sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	sum := h.Sum(nil)

	negative := sum[0]&0x80 != 0
	if negative {
		sum = twosComplement(sum)
	}
	digest := strings.TrimLeft(hex.EncodeToString(sum), "0")
	if digest == "" {
		digest = "0"
	}
	if negative {
		digest = "-" + digest
	}
	return digest
}

func twosComplement(b []byte) []byte {
	carry := true
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = ^b[i]
		if carry {
			carry = b[i] == 0xFF
			b[i]++
		}
	}
	return b
}
