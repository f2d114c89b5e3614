package ws

import (
	"skill-journal/internal/journal"
	"skill-journal/internal/session"
)

const (
	MsgAuth        = "auth"
	MsgLogout      = "logout"
	MsgSelectSkill = "select_skill"
	MsgDisplayMode = "display_mode"

	MsgSession  = "session"
	MsgSnapshot = "snapshot"
	MsgError    = "error"
)

// Inbound is a message sent by the client. Only the fields of its type are read.
type Inbound struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	SkillID string `json:"skill_id,omitempty"`
	Shape   string `json:"shape,omitempty"`
	Metric  string `json:"metric,omitempty"`
}

type SessionState struct {
	SignedIn bool              `json:"signed_in"`
	Identity *session.Identity `json:"identity,omitempty"`
}

type Outbound struct {
	Type     string          `json:"type"`
	Session  *SessionState   `json:"session,omitempty"`
	Snapshot *journal.Update `json:"snapshot,omitempty"`
	Error    string          `json:"error,omitempty"`
}
