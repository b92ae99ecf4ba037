package pipeline

import (
	"fmt"
	"strings"
)

// Stage names a pipeline tier (or tier group) for selective erasure.
type Stage string

const (
	StageRaw      Stage = "raw"
	StageFeatures Stage = "features"
	StageInsights Stage = "insights"
	// StageBoth erases raw and features.
	StageBoth Stage = "both"
	// StageAll erases every tier.
	StageAll Stage = "all"
)

// Erase deletes the persisted output of the named stage(s) for a ticker.
// Absent entries produce a skip notice, not an error. Deletion failures are
// logged per entry and do not abort the remaining deletions. An unknown
// stage name fails closed: nothing is deleted and ErrInvalidStage is
// returned. This is the only operation that destroys persisted state.
func (p *Pipeline) Erase(ticker string, stage Stage) error {
	var stages []Stage
	switch Stage(strings.ToLower(string(stage))) {
	case StageAll:
		stages = []Stage{StageRaw, StageFeatures, StageInsights}
	case StageBoth:
		stages = []Stage{StageRaw, StageFeatures}
	case StageRaw, StageFeatures, StageInsights:
		stages = []Stage{Stage(strings.ToLower(string(stage)))}
	default:
		return fmt.Errorf("%w: %q (want raw, features, insights, both, or all)", ErrInvalidStage, stage)
	}

	for _, s := range stages {
		switch s {
		case StageRaw:
			if !p.store.HasRaw(ticker, p.cfg.Interval) {
				p.log.Info("skip: no raw data found", "ticker", ticker)
				continue
			}
			if err := p.store.DeleteRaw(ticker, p.cfg.Interval); err != nil {
				p.log.Error("could not delete raw data", "ticker", ticker, "err", err)
				continue
			}
			p.log.Info("erased raw data", "ticker", ticker)

		case StageFeatures:
			if !p.store.HasFeatures(ticker, p.cfg.Interval) {
				p.log.Info("skip: no features data found", "ticker", ticker)
				continue
			}
			if err := p.store.DeleteFeatures(ticker, p.cfg.Interval); err != nil {
				p.log.Error("could not delete features data", "ticker", ticker, "err", err)
				continue
			}
			p.log.Info("erased features data", "ticker", ticker)

		case StageInsights:
			artifacts, err := p.store.ListInsightArtifacts(ticker, p.cfg.Interval)
			if err != nil {
				p.log.Error("could not list insight artifacts", "ticker", ticker, "err", err)
				continue
			}
			if len(artifacts) == 0 {
				p.log.Info("skip: no insight artifacts found", "ticker", ticker)
				continue
			}
			for _, artifact := range artifacts {
				if err := p.store.DeleteInsightArtifact(artifact); err != nil {
					p.log.Error("could not delete insight artifact", "artifact", artifact, "err", err)
					continue
				}
				p.log.Info("erased insight artifact", "artifact", artifact)
			}
		}
	}
	return nil
}
