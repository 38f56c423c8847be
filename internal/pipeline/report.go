package pipeline

import (
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/metrics"
)

// Stage names, in execution order.
const (
	StageFetch   = "fetch"
	StageFlatten = "flatten"
	StageDerive  = "derive"
	StageWrite   = "write"
	StageNotify  = "notify"
)

// StageTiming records how long one stage took.
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes one refresh cycle.
type Report struct {
	CycleID   string          `json:"cycle_id"`
	Trigger   string          `json:"trigger"`
	Source    string          `json:"source"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Outcome   metrics.Outcome `json:"outcome"`

	Entries int  `json:"entries"`
	Objects int  `json:"objects"`
	Pages   int  `json:"pages"`
	HasSite bool `json:"has_site"`

	CachePath string `json:"cache_path,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Changed   bool   `json:"changed"`

	Stages []StageTiming `json:"stages"`

	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (r *Report) clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	c.Stages = append([]StageTiming(nil), r.Stages...)
	return &c
}
