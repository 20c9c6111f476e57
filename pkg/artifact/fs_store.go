package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore is a filesystem-backed artifact store. Content lives under
// two-char prefix directories (<base>/ab/<hash>.dat) with a JSON metadata
// sidecar per artifact.
type FSStore struct {
	base string
}

type fsMeta struct {
	Summary   string  `json:"summary"`
	SizeBytes int     `json:"size_bytes"`
	MimeType  string  `json:"mime_type"`
	Source    string  `json:"source"`
	CreatedAt float64 `json:"created_at"`
}

// NewFSStore creates the base directory if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSStore{base: baseDir}, nil
}

func (s *FSStore) dataPath(artifactID string) string {
	return filepath.Join(s.base, artifactID[:2], artifactID+".dat")
}

func (s *FSStore) metaPath(artifactID string) string {
	return filepath.Join(s.base, artifactID[:2], artifactID+".meta.json")
}

func (s *FSStore) Store(content []byte, source, mimeType string) (Handle, error) {
	aid := ContentHash(content)
	dataPath := s.dataPath(aid)
	metaPath := s.metaPath(aid)

	if raw, err := os.ReadFile(metaPath); err == nil {
		var meta fsMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			return Handle{
				ArtifactID: aid,
				Summary:    meta.Summary,
				SizeBytes:  meta.SizeBytes,
				MimeType:   meta.MimeType,
				CreatedAt:  meta.CreatedAt,
				Source:     source,
			}, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return Handle{}, fmt.Errorf("create artifact prefix dir: %w", err)
	}
	if err := os.WriteFile(dataPath, content, 0o644); err != nil {
		return Handle{}, fmt.Errorf("write artifact data: %w", err)
	}
	meta := fsMeta{
		Summary:   MakeSummary(content),
		SizeBytes: len(content),
		MimeType:  mimeType,
		Source:    source,
		CreatedAt: nowSeconds(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return Handle{}, fmt.Errorf("marshal artifact meta: %w", err)
	}
	if err := os.WriteFile(metaPath, raw, 0o644); err != nil {
		return Handle{}, fmt.Errorf("write artifact meta: %w", err)
	}
	return Handle{
		ArtifactID: aid,
		Summary:    meta.Summary,
		SizeBytes:  meta.SizeBytes,
		MimeType:   meta.MimeType,
		CreatedAt:  meta.CreatedAt,
		Source:     source,
	}, nil
}

func (s *FSStore) Retrieve(artifactID string) ([]byte, error) {
	content, err := os.ReadFile(s.dataPath(artifactID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return content, nil
}

func (s *FSStore) Exists(artifactID string) (bool, error) {
	_, err := os.Stat(s.dataPath(artifactID))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat artifact: %w", err)
	}
	return true, nil
}

func (s *FSStore) ListHandles() ([]Handle, error) {
	var handles []Handle
	err := filepath.WalkDir(s.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".meta.json") {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read artifact meta %s: %w", path, err)
		}
		var meta fsMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("parse artifact meta %s: %w", path, err)
		}
		aid := strings.TrimSuffix(filepath.Base(path), ".meta.json")
		handles = append(handles, Handle{
			ArtifactID: aid,
			Summary:    meta.Summary,
			SizeBytes:  meta.SizeBytes,
			MimeType:   meta.MimeType,
			CreatedAt:  meta.CreatedAt,
			Source:     meta.Source,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handles, nil
}

func (s *FSStore) Delete(artifactID string) (bool, error) {
	deleted := false
	for _, path := range []string{s.dataPath(artifactID), s.metaPath(artifactID)} {
		err := os.Remove(path)
		if err == nil {
			deleted = true
		} else if !errors.Is(err, fs.ErrNotExist) {
			return deleted, fmt.Errorf("delete artifact: %w", err)
		}
	}
	return deleted, nil
}
