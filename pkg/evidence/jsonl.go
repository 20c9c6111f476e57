package evidence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToJSONL renders the pack as one JSON object per entry, one per line.
// Entry field order in the file is not part of the hash; hashing always
// re-canonicalizes.
func (p *Pack) ToJSONL() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	for i, entry := range p.entries {
		raw, err := json.Marshal(entry)
		if err != nil {
			return "", fmt.Errorf("marshal evidence entry %d: %w", i, err)
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.Write(raw)
	}
	return sb.String(), nil
}

// Save writes the pack to dir as evidence_<session_id>.jsonl, committing
// the Merkle root to the pack first. Returns the written path.
func (p *Pack) Save(dir string) (string, error) {
	p.MerkleRoot = p.MerkleRootHash()
	content, err := p.ToJSONL()
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, fmt.Sprintf("evidence_%s.jsonl", p.SessionID))
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	return out, nil
}

// Load reads an evidence JSONL file written by Save and reconstructs a pack
// for the given session. The caller should Verify the result; Load itself
// only checks that every line parses.
func Load(path, sessionID string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open evidence file: %w", err)
	}
	defer f.Close()

	pack := NewPack(sessionID)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("parse evidence line %d: %w", lineNo, err)
		}
		if entry.Data == nil {
			entry.Data = map[string]any{}
		}
		pack.entries = append(pack.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read evidence file: %w", err)
	}
	if n := len(pack.entries); n > 0 {
		pack.StartTime = pack.entries[0].Timestamp
		pack.EndTime = pack.entries[n-1].Timestamp
	}
	pack.MerkleRoot = pack.MerkleRootHash()
	return pack, nil
}
