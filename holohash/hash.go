package holohash

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	prefixSize = 3
	coreSize   = 32
	locSize    = 4
	// Size is the length of a raw hash: type prefix, core, DHT location.
	Size = prefixSize + coreSize + locSize
)

// Kind is the type prefix of a hash.
type Kind [prefixSize]byte

var (
	KindAction = Kind{0x84, 0x29, 0x24}
	KindEntry  = Kind{0x84, 0x21, 0x24}
	KindAgent  = Kind{0x84, 0x20, 0x24}
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindEntry:
		return "entry"
	case KindAgent:
		return "agent"
	default:
		return fmt.Sprintf("kind(%x)", k[:])
	}
}

// Hash is a content address. It is comparable and usable as a map key.
type Hash [Size]byte

// ActionHash identifies a record by the action that created it.
type ActionHash = Hash

// EntryHash identifies entry content.
type EntryHash = Hash

// AgentPubKey identifies an author.
type AgentPubKey = Hash

var encoding = base64.RawURLEncoding

// FromContent hashes content into a hash of the given kind.
func FromContent(kind Kind, content []byte) Hash {
	core := sha256.Sum256(content)
	return assemble(kind, core)
}

// Random returns a hash of the given kind with a random core.
func Random(kind Kind) Hash {
	var core [coreSize]byte
	if _, err := rand.Read(core[:]); err != nil {
		panic(fmt.Errorf("holohash: reading random bytes: %w", err))
	}
	return assemble(kind, core)
}

func assemble(kind Kind, core [coreSize]byte) Hash {
	var h Hash
	copy(h[:prefixSize], kind[:])
	copy(h[prefixSize:prefixSize+coreSize], core[:])
	binary.BigEndian.PutUint32(h[prefixSize+coreSize:], location(core[:]))
	return h
}

// location folds the core into four bytes by xor-ing its words.
func location(core []byte) uint32 {
	var loc uint32
	for i := 0; i+4 <= len(core); i += 4 {
		loc ^= binary.BigEndian.Uint32(core[i : i+4])
	}
	return loc
}

// Parse reads the "u"-prefixed base64url form produced by String.
func Parse(s string) (Hash, error) {
	var h Hash
	if !strings.HasPrefix(s, "u") {
		return h, fmt.Errorf("holohash: %q lacks the u prefix", s)
	}
	raw, err := encoding.DecodeString(s[1:])
	if err != nil {
		return h, fmt.Errorf("holohash: decoding %q: %w", s, err)
	}
	if len(raw) != Size {
		return h, fmt.Errorf("holohash: %q decodes to %d bytes, want %d", s, len(raw), Size)
	}
	copy(h[:], raw)
	if err := h.Validate(); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Hash {
	h, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hash) Kind() Kind {
	var k Kind
	copy(k[:], h[:prefixSize])
	return k
}

func (h Hash) Core() []byte {
	return h[prefixSize : prefixSize+coreSize]
}

func (h Hash) Location() uint32 {
	return binary.BigEndian.Uint32(h[prefixSize+coreSize:])
}

// Validate checks the location bytes against the core.
func (h Hash) Validate() error {
	if want := location(h.Core()); h.Location() != want {
		return fmt.Errorf("holohash: location %08x does not match core (%08x)", h.Location(), want)
	}
	return nil
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Sum64 is used to spread hashes across cache shards.
func (h Hash) Sum64() uint64 {
	return xxhash.Sum64(h[:])
}

func (h Hash) String() string {
	return "u" + encoding.EncodeToString(h[:])
}

// Short is a truncated form for logs and tables.
func (h Hash) Short() string {
	s := h.String()
	if len(s) <= 12 {
		return s
	}
	return s[:8] + "…" + s[len(s)-4:]
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
