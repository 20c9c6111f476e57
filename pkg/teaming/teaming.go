// Package teaming forms agent teams for a task, controls conversation
// flow among them, and hosts the red/blue adversarial guard exercise.
package teaming

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ygn-labs/ygn-brain/pkg/swarm"
	"github.com/ygn-labs/ygn-brain/pkg/uacp"
)

// AgentProfile describes a single agent in the distributed grid.
type AgentProfile struct {
	AgentID      string   `json:"agent_id"`
	NodeID       string   `json:"node_id"`
	Role         string   `json:"role"` // planner, executor, validator, specialist
	Capabilities []string `json:"capabilities"`
	TrustLevel   float64  `json:"trust_level"` // 0.0 to 1.0
	IsLocal      bool     `json:"is_local"`
}

// TeamFormation is a formed team ready to execute a task.
type TeamFormation struct {
	TeamID      string         `json:"team_id"`
	Agents      []AgentProfile `json:"agents"`
	LeadAgentID string         `json:"lead_agent_id"`
	Strategy    swarm.Mode     `json:"strategy"`
	CreatedAt   float64        `json:"created_at"`
}

// Turn is one utterance in a team conversation.
type Turn struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FlowPolicy names a turn-taking strategy.
type FlowPolicy string

const (
	PolicyRoundRobin      FlowPolicy = "round_robin"
	PolicyLeadFirst       FlowPolicy = "lead_first"
	PolicyCapabilityMatch FlowPolicy = "capability_match"
	PolicyDebate          FlowPolicy = "debate"
)

// FlowController picks the next speaker based on the active policy.
type FlowController struct {
	policy FlowPolicy
	agents []AgentProfile
}

func NewFlowController(policy FlowPolicy, agents []AgentProfile) *FlowController {
	return &FlowController{policy: policy, agents: append([]AgentProfile(nil), agents...)}
}

// NextSpeaker returns the agent who should speak next.
func (c *FlowController) NextSpeaker(conversation []Turn) AgentProfile {
	switch c.policy {
	case PolicyLeadFirst:
		return c.leadFirst(conversation)
	case PolicyCapabilityMatch:
		return c.capabilityMatch(conversation)
	case PolicyDebate:
		return c.debate(conversation)
	default:
		return c.roundRobin(conversation)
	}
}

// ShouldConclude reports whether the discussion has run maxRounds full
// rounds of the team.
func (c *FlowController) ShouldConclude(conversation []Turn, maxRounds int) bool {
	if len(c.agents) == 0 {
		return true
	}
	return len(conversation)/len(c.agents) >= maxRounds
}

func (c *FlowController) roundRobin(conversation []Turn) AgentProfile {
	return c.agents[len(conversation)%len(c.agents)]
}

func (c *FlowController) leadFirst(conversation []Turn) AgentProfile {
	byTrust := append([]AgentProfile(nil), c.agents...)
	sort.SliceStable(byTrust, func(i, j int) bool {
		return byTrust[i].TrustLevel > byTrust[j].TrustLevel
	})
	if len(conversation) == 0 {
		return byTrust[0]
	}
	return byTrust[(len(conversation)-1)%len(byTrust)]
}

func (c *FlowController) capabilityMatch(conversation []Turn) AgentProfile {
	mentioned := make(map[string]bool)
	for _, turn := range conversation {
		for _, w := range strings.Fields(strings.ToLower(turn.Content)) {
			mentioned[w] = true
		}
	}
	score := func(a AgentProfile) int {
		n := 0
		for _, capability := range a.Capabilities {
			if mentioned[strings.ToLower(capability)] {
				n++
			}
		}
		return n
	}
	best := c.agents[0]
	bestScore := score(best)
	for _, a := range c.agents[1:] {
		if s := score(a); s > bestScore {
			best, bestScore = a, s
		}
	}
	return best
}

func (c *FlowController) debate(conversation []Turn) AgentProfile {
	if len(conversation) == 0 {
		return c.agents[0]
	}
	lastRole := ""
	last := conversation[len(conversation)-1]
	for _, a := range c.agents {
		if a.AgentID == last.AgentID {
			lastRole = a.Role
			break
		}
	}
	for _, a := range c.agents {
		if a.Role != lastRole {
			return a
		}
	}
	return c.roundRobin(conversation)
}

// TeamBuilder forms and dissolves teams from a pool of available agents.
type TeamBuilder struct {
	available []AgentProfile
	active    map[string]TeamFormation
}

func NewTeamBuilder(available []AgentProfile) *TeamBuilder {
	return &TeamBuilder{
		available: append([]AgentProfile(nil), available...),
		active:    make(map[string]TeamFormation),
	}
}

// SetAvailable replaces the agent pool.
func (b *TeamBuilder) SetAvailable(agents []AgentProfile) {
	b.available = append([]AgentProfile(nil), agents...)
}

// FormTeam scores agents against the task domains, selects the top
// maxSize, and designates the highest-trust member as lead.
func (b *TeamBuilder) FormTeam(analysis swarm.Analysis, maxSize int) (TeamFormation, error) {
	if len(b.available) == 0 {
		return TeamFormation{}, fmt.Errorf("no agents available")
	}
	if maxSize <= 0 {
		maxSize = 4
	}

	domains := make(map[string]bool, len(analysis.Domains))
	for _, d := range analysis.Domains {
		domains[d] = true
	}

	type scored struct {
		agent AgentProfile
		score int
	}
	pool := make([]scored, 0, len(b.available))
	for _, a := range b.available {
		n := 0
		for _, capability := range a.Capabilities {
			if domains[capability] {
				n++
			}
		}
		pool = append(pool, scored{agent: a, score: n})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].agent.TrustLevel > pool[j].agent.TrustLevel
	})

	if maxSize > len(pool) {
		maxSize = len(pool)
	}
	selected := make([]AgentProfile, maxSize)
	for i := range selected {
		selected[i] = pool[i].agent
	}

	lead := selected[0]
	for _, a := range selected[1:] {
		if a.TrustLevel > lead.TrustLevel {
			lead = a
		}
	}

	team := TeamFormation{
		TeamID:      strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Agents:      selected,
		LeadAgentID: lead.AgentID,
		Strategy:    strategyFor(analysis.Complexity),
		CreatedAt:   float64(time.Now().UnixMicro()) / 1e6,
	}
	b.active[team.TeamID] = team
	return team, nil
}

// DissolveTeam removes a team from the active roster.
func (b *TeamBuilder) DissolveTeam(teamID string) {
	delete(b.active, teamID)
}

// ActiveTeams returns a copy of the active team registry.
func (b *TeamBuilder) ActiveTeams() map[string]TeamFormation {
	out := make(map[string]TeamFormation, len(b.active))
	for id, team := range b.active {
		out[id] = team
	}
	return out
}

func strategyFor(c swarm.Complexity) swarm.Mode {
	switch c {
	case swarm.ComplexityTrivial, swarm.ComplexitySimple:
		return swarm.ModeSequential
	case swarm.ComplexityModerate:
		return swarm.ModeLeadSupport
	case swarm.ComplexityComplex:
		return swarm.ModeParallel
	default:
		return swarm.ModeSpecialist
	}
}

// Transport carries encoded agent-to-agent frames off the local node.
type Transport interface {
	Send(frame []byte) error
}

// DistributedEngine extends the swarm engine with team formation and
// flow control. Each conversation turn is encoded as a uACP OBSERVE
// frame and handed to the transport for grid delivery.
type DistributedEngine struct {
	builder   *TeamBuilder
	analyzer  swarm.TaskAnalyzer
	transport Transport
	maxRounds int
}

func NewDistributedEngine(builder *TeamBuilder, transport Transport) *DistributedEngine {
	return &DistributedEngine{builder: builder, transport: transport, maxRounds: 5}
}

// RunDistributed analyzes the task, forms a team, and simulates the
// multi-agent conversation under the flow policy derived from the team
// strategy.
func (e *DistributedEngine) RunDistributed(_ context.Context, userInput string, available []AgentProfile) (swarm.Result, error) {
	analysis := e.analyzer.Analyze(userInput)

	e.builder.SetAvailable(available)
	team, err := e.builder.FormTeam(analysis, 4)
	if err != nil {
		return swarm.Result{}, fmt.Errorf("form team: %w", err)
	}

	controller := NewFlowController(policyFor(team.Strategy), team.Agents)

	var conversation []Turn
	for !controller.ShouldConclude(conversation, e.maxRounds) {
		speaker := controller.NextSpeaker(conversation)
		turn := Turn{
			AgentID: speaker.AgentID,
			Role:    speaker.Role,
			Content: fmt.Sprintf("[%s] Response to: %s", speaker.Role, userInput),
		}
		conversation = append(conversation, turn)

		if e.transport != nil {
			frame := uacp.Encode(uacp.Observe(speaker.AgentID, []byte(turn.Content)))
			if err := e.transport.Send(frame); err != nil {
				return swarm.Result{}, fmt.Errorf("send turn frame: %w", err)
			}
		}
	}

	parts := make([]string, len(conversation))
	agentIDs := make([]string, len(team.Agents))
	for i, turn := range conversation {
		parts[i] = turn.Content
	}
	for i, a := range team.Agents {
		agentIDs[i] = a.AgentID
	}

	output := strings.Join(parts, "\n")
	if output == "" {
		output = "Processed: " + userInput
	}
	return swarm.Result{
		Mode:   resolveMode(team.Strategy),
		Output: output,
		Metadata: map[string]any{
			"team_id":            team.TeamID,
			"lead_agent_id":      team.LeadAgentID,
			"agents":             agentIDs,
			"conversation_turns": len(conversation),
			"strategy":           string(team.Strategy),
		},
	}, nil
}

func resolveMode(strategy swarm.Mode) swarm.Mode {
	switch strategy {
	case swarm.ModeParallel, swarm.ModeSequential, swarm.ModeRedBlue,
		swarm.ModePingPong, swarm.ModeLeadSupport, swarm.ModeSpecialist:
		return strategy
	}
	return swarm.ModeSequential
}

func policyFor(strategy swarm.Mode) FlowPolicy {
	switch strategy {
	case swarm.ModeRedBlue, swarm.ModePingPong:
		return PolicyDebate
	case swarm.ModeLeadSupport:
		return PolicyLeadFirst
	case swarm.ModeSpecialist:
		return PolicyCapabilityMatch
	default:
		return PolicyRoundRobin
	}
}
