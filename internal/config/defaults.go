package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tepperly/nasprint-sub000/internal/clockadj"
	"github.com/tepperly/nasprint-sub000/internal/engine"
	"github.com/tepperly/nasprint-sub000/internal/model"
	"github.com/tepperly/nasprint-sub000/internal/multiplier"
	"github.com/tepperly/nasprint-sub000/internal/singleton"
)

// setDefaults registers every key, so environment variables can override
// keys absent from the settings file.
func setDefaults(v *viper.Viper) {
	eng := engine.DefaultConfig()

	v.SetDefault("database", "nasprint.db")
	v.SetDefault("contest_file", "contest.cue")
	v.SetDefault("workers", 0)
	v.SetDefault("metrics_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("prompt.interactive", false)
	v.SetDefault("prompt.timeout", 5*time.Minute)

	v.SetDefault("matching.time_tolerance", eng.TimeTolerance)
	v.SetDefault("matching.shifted_tolerance", eng.ShiftedTolerance)
	v.SetDefault("matching.unreliable_tolerance", eng.UnreliableTolerance)
	v.SetDefault("matching.serial_tolerance", eng.SerialTolerance)
	v.SetDefault("matching.unknown_serial", model.UnknownSerial)
	v.SetDefault("matching.candidate_floor", eng.CandidateFloor)
	v.SetDefault("matching.auto_accept_metric", eng.AutoAcceptMetric)
	v.SetDefault("matching.auto_accept_callsign", eng.AutoAcceptCallsign)
	v.SetDefault("matching.far_more_common_ratio", eng.Singleton.FarMoreCommon)
	v.SetDefault("matching.singleton_similarity", eng.Singleton.CallSimilarity)
	v.SetDefault("matching.unique_serial_floor", eng.Singleton.UniqueSerialFloor)
	v.SetDefault("matching.majority", eng.Multiplier.Majority)

	v.SetDefault("clock.enabled", eng.ClockEnabled)
	v.SetDefault("clock.regularization", eng.Clock.Regularization)
	v.SetDefault("clock.unreliable_threshold", eng.Clock.UnreliableThreshold)
	v.SetDefault("clock.mismatch_threshold", eng.Clock.MismatchThreshold)
	v.SetDefault("clock.max_iterations", eng.Clock.MaxIterations)
}

// EngineConfig builds the engine thresholds from the settings. Tuning not
// exposed as a setting keeps its engine default.
func (s *Settings) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	m := s.Matching

	cfg.TimeTolerance = m.TimeTolerance
	cfg.ShiftedTolerance = m.ShiftedTolerance
	cfg.UnreliableTolerance = m.UnreliableTolerance
	cfg.SerialTolerance = m.SerialTolerance
	cfg.UnknownSerial = m.UnknownSerial
	cfg.CandidateFloor = m.CandidateFloor
	cfg.AutoAcceptMetric = m.AutoAcceptMetric
	cfg.AutoAcceptCallsign = m.AutoAcceptCallsign

	sp := singleton.DefaultParams()
	sp.FarMoreCommon = m.FarMoreCommonRatio
	sp.CallSimilarity = m.SingletonSimilarity
	sp.UniqueSerialFloor = m.UniqueSerialFloor
	cfg.Singleton = sp

	cfg.Multiplier = multiplier.Params{Majority: m.Majority}

	cfg.ClockEnabled = s.Clock.Enabled
	cfg.Clock = clockadj.Params{
		Regularization:      s.Clock.Regularization,
		UnreliableThreshold: s.Clock.UnreliableThreshold,
		MismatchThreshold:   s.Clock.MismatchThreshold,
		MaxIterations:       s.Clock.MaxIterations,
	}
	return cfg
}
