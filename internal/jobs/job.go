// Package jobs defines the asynchronous job catalog, the Redis-backed job
// queue store, and the worker loop that drains it.
package jobs

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the closed set of job variants.
type Kind string

const (
	KindCreateLobby            Kind = "create_lobby"
	KindCreateGame             Kind = "create_game"
	KindCheckRoundFulfillment  Kind = "check_round_fulfillment"
	KindCheckRoundCompletion   Kind = "check_round_completion"
	KindCleanupLobbyMembership Kind = "cleanup_lobby_membership"
	KindCleanupGameMembership  Kind = "cleanup_game_membership"
)

// CreateLobby provisions a new lobby on behalf of its creator.
type CreateLobby struct {
	Creator string    `json:"creator"`
	Result  *IDResult `json:"result,omitempty"`
}

// CreateGame provisions a new game (with its rounds and memberships) in a lobby.
type CreateGame struct {
	Creator string    `json:"creator"`
	LobbyID string    `json:"lobby_id"`
	Result  *IDResult `json:"result,omitempty"`
}

// CheckRoundFulfillment asks whether every active member has an entry for the
// round. Its result is the number of entries still missing; 0 means the round
// is now fulfilled.
type CheckRoundFulfillment struct {
	RoundID string       `json:"round_id"`
	Result  *CountResult `json:"result,omitempty"`
}

// CheckRoundCompletion asks whether every active member has voted in the round.
type CheckRoundCompletion struct {
	RoundID string            `json:"round_id"`
	GameID  string            `json:"game_id"`
	Result  *CompletionResult `json:"result,omitempty"`
}

// CleanupLobbyMembership runs after a member leaves a lobby: it cascades game
// membership cleanup and closes the lobby once it is empty.
type CleanupLobbyMembership struct {
	MemberID string    `json:"member_id"`
	LobbyID  string    `json:"lobby_id"`
	Result   *IDResult `json:"result,omitempty"`
}

// CleanupGameMembership runs after a member leaves a game: it backfills empty
// entries for any round the member never answered so fulfillment cannot stall.
type CleanupGameMembership struct {
	UserID   string       `json:"user_id"`
	MemberID string       `json:"member_id"`
	LobbyID  string       `json:"lobby_id"`
	GameID   string       `json:"game_id"`
	Result   *IDSetResult `json:"result,omitempty"`
}

// Job is the envelope for exactly one of the variant payloads above. Exactly
// one payload pointer matching Kind is non-nil.
type Job struct {
	Kind Kind

	CreateLobby            *CreateLobby
	CreateGame             *CreateGame
	CheckRoundFulfillment  *CheckRoundFulfillment
	CheckRoundCompletion   *CheckRoundCompletion
	CleanupLobbyMembership *CleanupLobbyMembership
	CleanupGameMembership  *CleanupGameMembership
}

// QueuedJob pairs a job with the opaque id it was queued under. The id doubles
// as the status-map key for later lookups.
type QueuedJob struct {
	ID  string `json:"id"`
	Job Job    `json:"job"`
}

// envelope is the wire shape of a Job: a tag plus a kind-specific payload.
type envelope struct {
	T Kind            `json:"t"`
	C json.RawMessage `json:"c"`
}

func (j Job) payload() (interface{}, error) {
	switch j.Kind {
	case KindCreateLobby:
		if j.CreateLobby != nil {
			return j.CreateLobby, nil
		}
	case KindCreateGame:
		if j.CreateGame != nil {
			return j.CreateGame, nil
		}
	case KindCheckRoundFulfillment:
		if j.CheckRoundFulfillment != nil {
			return j.CheckRoundFulfillment, nil
		}
	case KindCheckRoundCompletion:
		if j.CheckRoundCompletion != nil {
			return j.CheckRoundCompletion, nil
		}
	case KindCleanupLobbyMembership:
		if j.CleanupLobbyMembership != nil {
			return j.CleanupLobbyMembership, nil
		}
	case KindCleanupGameMembership:
		if j.CleanupGameMembership != nil {
			return j.CleanupGameMembership, nil
		}
	default:
		return nil, fmt.Errorf("unknown job kind %q", j.Kind)
	}
	return nil, fmt.Errorf("job kind %q has no payload", j.Kind)
}

// MarshalJSON encodes the job as {"t": <kind>, "c": <payload>}.
func (j Job) MarshalJSON() ([]byte, error) {
	payload, err := j.payload()
	if err != nil {
		return nil, err
	}
	c, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{T: j.Kind, C: c})
}

// UnmarshalJSON decodes the tagged wire form back into the matching variant.
func (j *Job) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	*j = Job{Kind: env.T}
	switch env.T {
	case KindCreateLobby:
		j.CreateLobby = &CreateLobby{}
		return json.Unmarshal(env.C, j.CreateLobby)
	case KindCreateGame:
		j.CreateGame = &CreateGame{}
		return json.Unmarshal(env.C, j.CreateGame)
	case KindCheckRoundFulfillment:
		j.CheckRoundFulfillment = &CheckRoundFulfillment{}
		return json.Unmarshal(env.C, j.CheckRoundFulfillment)
	case KindCheckRoundCompletion:
		j.CheckRoundCompletion = &CheckRoundCompletion{}
		return json.Unmarshal(env.C, j.CheckRoundCompletion)
	case KindCleanupLobbyMembership:
		j.CleanupLobbyMembership = &CleanupLobbyMembership{}
		return json.Unmarshal(env.C, j.CleanupLobbyMembership)
	case KindCleanupGameMembership:
		j.CleanupGameMembership = &CleanupGameMembership{}
		return json.Unmarshal(env.C, j.CleanupGameMembership)
	default:
		return fmt.Errorf("unknown job kind %q", env.T)
	}
}

// Processed reports whether the job carries a result, i.e. a worker has
// already handled it.
func (j Job) Processed() bool {
	switch j.Kind {
	case KindCreateLobby:
		return j.CreateLobby != nil && j.CreateLobby.Result != nil
	case KindCreateGame:
		return j.CreateGame != nil && j.CreateGame.Result != nil
	case KindCheckRoundFulfillment:
		return j.CheckRoundFulfillment != nil && j.CheckRoundFulfillment.Result != nil
	case KindCheckRoundCompletion:
		return j.CheckRoundCompletion != nil && j.CheckRoundCompletion.Result != nil
	case KindCleanupLobbyMembership:
		return j.CleanupLobbyMembership != nil && j.CleanupLobbyMembership.Result != nil
	case KindCleanupGameMembership:
		return j.CleanupGameMembership != nil && j.CleanupGameMembership.Result != nil
	}
	return false
}
