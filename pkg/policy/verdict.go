package policy

// Verdict is the policy evaluator's decision for one message.
// ModifiedContent is set only for modify verdicts; Reason is set for every
// verdict except allow.
type Verdict struct {
	Action          string `json:"action"`
	Reason          string `json:"reason,omitempty"`
	ModifiedContent string `json:"modified_content,omitempty"`
}

func Allowed() Verdict {
	return Verdict{Action: "allow"}
}

func (v Verdict) IsAllow() bool {
	return v.Action == "allow"
}

func (v Verdict) IsBlock() bool {
	return v.Action == "block"
}

func (v Verdict) IsModify() bool {
	return v.Action == "modify"
}
