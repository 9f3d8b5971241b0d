// Package id provides centralized ID generation for the engine.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based queries
//   - Prefixed types: Type-specific prefixes for debugging (ws_*, pin_*, fav_*)
//   - Type safety: Separate types prevent ID misuse
//   - Uniqueness: Safe for tight import loops that mint many IDs per tick
//
// Logical-item IDs are deliberately distinct from live document IDs: the
// latter are volatile integers assigned by the host registry and reused
// after removal, while these IDs are stable for the life of the entity.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// WorkspaceID identifies a workspace
type WorkspaceID string

// PinnedID identifies a pinned item within a workspace
type PinnedID string

// FavoriteID identifies a global favorite
type FavoriteID string

// FolderID identifies a folder within a workspace
type FolderID string

// RequestID identifies an API request
type RequestID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	WorkspacePrefix = "ws"
	PinnedPrefix    = "pin"
	FavoritePrefix  = "fav"
	FolderPrefix    = "fld"
	RequestPrefix   = "req"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewWorkspaceID generates a new workspace ID
func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(Default().GenerateWithPrefix(WorkspacePrefix))
}

// NewPinnedID generates a new pinned item ID
func NewPinnedID() PinnedID {
	return PinnedID(Default().GenerateWithPrefix(PinnedPrefix))
}

// NewFavoriteID generates a new favorite ID
func NewFavoriteID() FavoriteID {
	return FavoriteID(Default().GenerateWithPrefix(FavoritePrefix))
}

// NewFolderID generates a new folder ID
func NewFolderID() FolderID {
	return FolderID(Default().GenerateWithPrefix(FolderPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// String methods for ID types
func (id WorkspaceID) String() string { return string(id) }
func (id PinnedID) String() string    { return string(id) }
func (id FavoriteID) String() string  { return string(id) }
func (id FolderID) String() string    { return string(id) }
func (id RequestID) String() string   { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
