package services

import (
	"fmt"

	"github.com/ygn-labs/ygn-brain/pkg/evidence"
	"github.com/ygn-labs/ygn-brain/pkg/orchestrator"
)

// SessionSummary is the list view of a finished run.
type SessionSummary struct {
	SessionID  string `json:"session_id"`
	EntryCount int    `json:"entry_count"`
	MerkleRoot string `json:"merkle_root"`
}

// SessionDetail adds integrity information to the summary.
type SessionDetail struct {
	SessionSummary
	ModelID       string  `json:"model_id,omitempty"`
	ChainVerified bool    `json:"chain_verified"`
	SignerKey     string  `json:"signer_key,omitempty"`
	CreatedAt     float64 `json:"created_at"`
}

// EvidenceExport is the full pack export for a session.
type EvidenceExport struct {
	SessionID  string           `json:"session_id"`
	Entries    []evidence.Entry `json:"entries"`
	JSONL      string           `json:"jsonl"`
	MerkleRoot string           `json:"merkle_root"`
	EntryCount int              `json:"entry_count"`
}

// SessionService serves session and evidence views over the
// orchestrator's pack registry.
type SessionService struct {
	orch *orchestrator.Orchestrator
}

func NewSessionService(orch *orchestrator.Orchestrator) *SessionService {
	return &SessionService{orch: orch}
}

// ListSessions returns summaries for all finished runs, oldest first.
func (s *SessionService) ListSessions() []SessionSummary {
	ids := s.orch.Sessions()
	summaries := make([]SessionSummary, 0, len(ids))
	for _, id := range ids {
		pack, err := s.orch.EvidencePack(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, SessionSummary{
			SessionID:  id,
			EntryCount: pack.Len(),
			MerkleRoot: pack.MerkleRootHash(),
		})
	}
	return summaries
}

// GetSession returns the detail view for one session.
func (s *SessionService) GetSession(sessionID string) (SessionDetail, error) {
	pack, err := s.orch.EvidencePack(sessionID)
	if err != nil {
		return SessionDetail{}, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	return SessionDetail{
		SessionSummary: SessionSummary{
			SessionID:  sessionID,
			EntryCount: pack.Len(),
			MerkleRoot: pack.MerkleRootHash(),
		},
		ModelID:       pack.ModelID,
		ChainVerified: pack.Verify(""),
		SignerKey:     pack.SignerPublicKey,
		CreatedAt:     pack.CreatedAt,
	}, nil
}

// GetEvidence exports the full pack for one session.
func (s *SessionService) GetEvidence(sessionID string) (EvidenceExport, error) {
	pack, err := s.orch.EvidencePack(sessionID)
	if err != nil {
		return EvidenceExport{}, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	jsonl, err := pack.ToJSONL()
	if err != nil {
		return EvidenceExport{}, fmt.Errorf("export session %q: %w", sessionID, err)
	}
	return EvidenceExport{
		SessionID:  sessionID,
		Entries:    pack.Entries(),
		JSONL:      jsonl,
		MerkleRoot: pack.MerkleRootHash(),
		EntryCount: pack.Len(),
	}, nil
}
