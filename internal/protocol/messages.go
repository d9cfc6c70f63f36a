package protocol

// CMD (adapter -> server)
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Command         string `json:"command"`

	UserID     string   `json:"user_id"`
	GroupID    string   `json:"group_id,omitempty"`
	Nickname   string   `json:"nickname,omitempty"`
	Avatar     string   `json:"avatar,omitempty"`
	Permission int      `json:"permission"`
	ToMe       bool     `json:"to_me,omitempty"`
	At         []string `json:"at,omitempty"`
	Args       []string `json:"args,omitempty"`
}

// RESULT (server -> adapter)
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Text            string `json:"text,omitempty"`
	Data            any    `json:"data,omitempty"`
}

func NewResult(id string) ResultMsg {
	return ResultMsg{Type: TypeResult, ProtocolVersion: Version, ID: id}
}

// ErrorResult is a failed RESULT carrying only a code and text.
func ErrorResult(id, code, text string) ResultMsg {
	r := NewResult(id)
	r.Code = code
	r.Text = text
	return r
}
