// Package evidence implements the tamper-evident audit trail recorded for
// every orchestration session: an append-only SHA-256 hash chain with
// optional ed25519 entry signatures and an RFC 6962 Merkle commitment over
// the entry hashes.
package evidence

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the constrained set of valid evidence entry kinds.
type Kind string

const (
	KindInput    Kind = "input"
	KindDecision Kind = "decision"
	KindToolCall Kind = "tool_call"
	KindSource   Kind = "source"
	KindOutput   Kind = "output"
	KindError    Kind = "error"
)

// ValidKind reports whether k is one of the allowed entry kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindInput, KindDecision, KindToolCall, KindSource, KindOutput, KindError:
		return true
	}
	return false
}

// Entry is a single immutable record in the evidence chain.
type Entry struct {
	EntryID   string         `json:"entry_id"`
	Timestamp float64        `json:"timestamp"`
	Phase     string         `json:"phase"`
	Kind      Kind           `json:"kind"`
	Data      map[string]any `json:"data"`
	PrevHash  string         `json:"prev_hash"`
	EntryHash string         `json:"entry_hash"`
	Signature string         `json:"signature"`
}

// Pack is the per-session evidence container. All methods are safe for
// concurrent use.
type Pack struct {
	mu sync.Mutex

	SessionID       string  `json:"session_id"`
	CreatedAt       float64 `json:"created_at"`
	StartTime       float64 `json:"start_time"`
	EndTime         float64 `json:"end_time"`
	ModelID         string  `json:"model_id"`
	SignerPublicKey string  `json:"signer_public_key"`
	MerkleRoot      string  `json:"merkle_root"`

	entries []Entry
}

// NewPack creates an empty evidence pack for a session.
func NewPack(sessionID string) *Pack {
	return &Pack{
		SessionID: sessionID,
		CreatedAt: unixSeconds(),
	}
}

func unixSeconds() float64 {
	return float64(time.Now().UnixMicro()) / 1e6
}

// newEntryID generates a time-sortable entry ID: millisecond timestamp in
// hex followed by a random suffix.
func newEntryID() string {
	return fmt.Sprintf("%012x-%s", time.Now().UnixMilli(),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}

// normalizeData round-trips the data map through JSON with number literals
// preserved, so the bytes hashed at append time are exactly the bytes that
// re-hash after a JSONL save and load.
func normalizeData(data map[string]any) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// computeEntryHash hashes the canonical JSON of the hashed entry fields.
// Key order is lexicographic: data, kind, phase, prev_hash, timestamp.
func computeEntryHash(timestamp float64, phase string, kind Kind, data map[string]any, prevHash string) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	canonical, err := canonicalJSON(map[string]any{
		"data":      data,
		"kind":      string(kind),
		"phase":     phase,
		"prev_hash": prevHash,
		"timestamp": timestamp,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Add appends an entry to the chain. The previous entry's hash becomes the
// new entry's prev_hash; the first entry uses the empty string.
func (p *Pack) Add(phase string, kind Kind, data map[string]any) error {
	if !ValidKind(kind) {
		return fmt.Errorf("invalid evidence kind %q", kind)
	}
	data, err := normalizeData(data)
	if err != nil {
		return fmt.Errorf("normalize evidence data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prevHash := ""
	if len(p.entries) > 0 {
		prevHash = p.entries[len(p.entries)-1].EntryHash
	}
	entry := Entry{
		EntryID:   newEntryID(),
		Timestamp: unixSeconds(),
		Phase:     phase,
		Kind:      kind,
		Data:      data,
		PrevHash:  prevHash,
	}
	hash, err := computeEntryHash(entry.Timestamp, entry.Phase, entry.Kind, entry.Data, entry.PrevHash)
	if err != nil {
		return fmt.Errorf("hash evidence entry: %w", err)
	}
	entry.EntryHash = hash

	if p.StartTime == 0 {
		p.StartTime = entry.Timestamp
	}
	p.EndTime = entry.Timestamp
	p.entries = append(p.entries, entry)
	return nil
}

// Entries returns a copy of the chain.
func (p *Pack) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Len returns the number of entries.
func (p *Pack) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Sign signs every entry hash with the ed25519 key derived from the given
// 32-byte seed and records the signer public key on the pack.
func (p *Pack) Sign(seedHex string) error {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return fmt.Errorf("decode signing seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	key := ed25519.NewKeyFromSeed(seed)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.SignerPublicKey = hex.EncodeToString(key.Public().(ed25519.PublicKey))
	for i := range p.entries {
		sig := ed25519.Sign(key, []byte(p.entries[i].EntryHash))
		p.entries[i].Signature = hex.EncodeToString(sig)
	}
	return nil
}

// Verify checks hash-chain integrity and, when signatures are present,
// verifies every signature against the given public key (falling back to
// the pack's recorded signer key). It never returns an error: any integrity
// failure yields false.
func (p *Pack) Verify(publicKeyHex string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, entry := range p.entries {
		if entry.EntryHash == "" {
			continue
		}
		expectedPrev := ""
		if i > 0 {
			expectedPrev = p.entries[i-1].EntryHash
		}
		if entry.PrevHash != expectedPrev {
			return false
		}
		expected, err := computeEntryHash(entry.Timestamp, entry.Phase, entry.Kind, entry.Data, entry.PrevHash)
		if err != nil || entry.EntryHash != expected {
			return false
		}
	}

	pkHex := publicKeyHex
	if pkHex == "" {
		pkHex = p.SignerPublicKey
	}
	hasSignatures := false
	for _, e := range p.entries {
		if e.Signature != "" {
			hasSignatures = true
			break
		}
	}
	if pkHex != "" && hasSignatures {
		pk, err := hex.DecodeString(pkHex)
		if err != nil || len(pk) != ed25519.PublicKeySize {
			return false
		}
		for _, entry := range p.entries {
			if entry.Signature == "" {
				return false
			}
			sig, err := hex.DecodeString(entry.Signature)
			if err != nil {
				return false
			}
			if !ed25519.Verify(ed25519.PublicKey(pk), []byte(entry.EntryHash), sig) {
				return false
			}
		}
	}
	return true
}

// MerkleRootHash computes the RFC 6962 root over the entry hashes and
// returns it as lowercase hex.
func (p *Pack) MerkleRootHash() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return hex.EncodeToString(merkleRoot(p.leavesLocked()))
}

func (p *Pack) leavesLocked() [][]byte {
	leaves := make([][]byte, 0, len(p.entries))
	for _, e := range p.entries {
		if e.EntryHash == "" {
			continue
		}
		raw, err := hex.DecodeString(e.EntryHash)
		if err != nil {
			continue
		}
		leaves = append(leaves, raw)
	}
	return leaves
}

// InclusionProof returns the RFC 6962 audit path for the entry at index,
// ordered leaf-upward, plus the tree size the proof was built against.
func (p *Pack) InclusionProof(index int) ([]string, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	leaves := p.leavesLocked()
	if index < 0 || index >= len(leaves) {
		return nil, 0, fmt.Errorf("inclusion proof index %d out of range [0,%d)", index, len(leaves))
	}
	path := merkleInclusionProof(leaves, index)
	out := make([]string, len(path))
	for i, node := range path {
		out[i] = hex.EncodeToString(node)
	}
	return out, len(leaves), nil
}

// VerifyInclusion checks an audit path produced by InclusionProof against a
// root hash.
func VerifyInclusion(entryHashHex string, index, size int, pathHex []string, rootHex string) bool {
	leaf, err := hex.DecodeString(entryHashHex)
	if err != nil {
		return false
	}
	root, err := hex.DecodeString(rootHex)
	if err != nil {
		return false
	}
	path := make([][]byte, len(pathHex))
	for i, h := range pathHex {
		node, err := hex.DecodeString(h)
		if err != nil {
			return false
		}
		path[i] = node
	}
	return verifyInclusion(leaf, index, size, path, root)
}
