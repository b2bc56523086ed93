package rule

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Kind selects the detector layer a rule dispatches to.
const (
	KindKeyword  = "keyword"
	KindRegex    = "regex"
	KindPII      = "pii"
	KindSemantic = "semantic"
)

const (
	ActionAllow  = "allow"
	ActionBlock  = "block"
	ActionModify = "modify"
)

// Rule is one content policy entry for an organization. Rules are immutable
// for the duration of an evaluation pass.
type Rule struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"column:name"`
	Kind      string    `json:"type" gorm:"column:type"`
	Pattern   string    `json:"pattern" gorm:"column:pattern"`
	Action    string    `json:"action" gorm:"column:action"`
	Priority  int       `json:"priority" gorm:"column:priority"`
	Active    bool      `json:"is_active" gorm:"column:is_active"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Rule) TableName() string {
	return "filtering_rules"
}

// ByEvaluationOrder returns the active rules sorted by descending priority.
// Equal priorities keep their original relative order.
func ByEvaluationOrder(rules []Rule) []Rule {
	ordered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return ordered
}
