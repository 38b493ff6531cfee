package audio

import (
	"encoding/json"
	"fmt"
)

// ----- Chain Config JSON ----- //

type chainJSON struct {
	Order  []string           `json:"order"`
	Bypass map[string]gapJSON `json:"bypass"`
}
type gapJSON struct {
	After  string `json:"after"`
	Before string `json:"before"`
}

func parseChainConfig(data []byte) (*chainConfig, error) {
	var j chainJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("invalid chain config: %v", err)
	}
	cfg := &chainConfig{
		order:  j.Order,
		bypass: map[string]bypassGap{},
	}
	for name, gap := range j.Bypass {
		cfg.bypass[name] = bypassGap{after: gap.After, before: gap.Before}
	}
	return cfg, nil
}

func (c *chainConfig) toJSON() json.RawMessage {
	j := chainJSON{Order: c.order, Bypass: map[string]gapJSON{}}
	for name, gap := range c.bypass {
		j.Bypass[name] = gapJSON{After: gap.after, Before: gap.before}
	}
	return toRawMessage(&j)
}

// defaultChainConfig is the standing ambient path. The crush and drive
// stages start out of the path entirely; the grit macro splices them in
// when it leaves its dormant zone.
func defaultChainConfig() *chainConfig {
	return &chainConfig{
		order: []string{"chorus", "tone", sentinelName, "space"},
		bypass: map[string]bypassGap{
			"crush": {after: "chorus", before: "tone"},
			"drive": {after: "tone", before: sentinelName},
		},
	}
}
