package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tepperly/nasprint-sub000/internal/loader"
	"github.com/tepperly/nasprint-sub000/internal/model"
)

// Scenario defines one adjudication scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Contest is the path of the CUE contest definition.
	// Relative paths are resolved against the scenario file's directory.
	Contest string `yaml:"contest"`

	// Clock enables clock solving and the re-match pass.
	Clock bool `yaml:"clock,omitempty"`

	// Answers maps a question kind (pair, multiplier, entity) to the
	// option index given for every question of that kind.
	Answers map[string]int `yaml:"answers,omitempty"`

	// Data is the log batch to load.
	Data loader.File `yaml:"data"`

	// Assertions validate the final adjudication.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the final state of a QSO or log.
type Assertion struct {
	// Type is one of qso, linked, score or count.
	Type string `yaml:"type"`

	// QSO references a QSO as CALL#N (used by qso and linked).
	QSO string `yaml:"qso,omitempty"`

	// State is the expected match type (used by qso and count).
	State model.MatchType `yaml:"state,omitempty"`

	// Comment must appear in the QSO's comment (used by qso).
	Comment string `yaml:"comment,omitempty"`

	// With references the expected partner (used by linked).
	With string `yaml:"with,omitempty"`

	// Log is a callsign (used by score, optional for count).
	Log string `yaml:"log,omitempty"`

	// Score is the expected verified score (used by score).
	Score *int `yaml:"score,omitempty"`

	// Count is the expected number of QSOs (used by count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertQSO    = "qso"
	AssertLinked = "linked"
	AssertScore  = "score"
	AssertCount  = "count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes a scenario, resolving the contest path against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Contest != "" && !filepath.IsAbs(scenario.Contest) && basePath != "" {
		scenario.Contest = filepath.Join(basePath, scenario.Contest)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Contest == "" {
		return fmt.Errorf("contest is required")
	}
	if _, err := os.Stat(s.Contest); os.IsNotExist(err) {
		return fmt.Errorf("contest file not found: %s", s.Contest)
	}
	if len(s.Data.Logs) == 0 {
		return fmt.Errorf("data.logs is required and must be non-empty")
	}
	if err := s.Data.Validate(); err != nil {
		return err
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertQSO:
		if err := checkRef(index, "qso", a.QSO); err != nil {
			return err
		}
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for qso", index)
		}
	case AssertLinked:
		if err := checkRef(index, "qso", a.QSO); err != nil {
			return err
		}
		if err := checkRef(index, "with", a.With); err != nil {
			return err
		}
	case AssertScore:
		if a.Log == "" {
			return fmt.Errorf("assertions[%d]: log is required for score", index)
		}
		if a.Score == nil {
			return fmt.Errorf("assertions[%d]: score is required for score", index)
		}
	case AssertCount:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.State != "" {
		if _, err := model.ParseMatchType(string(a.State)); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}
	return nil
}

var refPattern = regexp.MustCompile(`^([A-Za-z0-9/]+)#([1-9][0-9]*)$`)

// QSORef names the Nth QSO (from 1) of a log.
type QSORef struct {
	Callsign string
	Index    int
}

func (r QSORef) String() string {
	return fmt.Sprintf("%s#%d", r.Callsign, r.Index)
}

// ParseRef parses a CALL#N reference. The callsign is normalized.
func ParseRef(s string) (QSORef, error) {
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return QSORef{}, fmt.Errorf("invalid qso reference %q, expected CALL#N", s)
	}
	n, _ := strconv.Atoi(m[2])
	return QSORef{Callsign: model.NormalizeCall(m[1]), Index: n}, nil
}

func checkRef(index int, field, ref string) error {
	if ref == "" {
		return fmt.Errorf("assertions[%d]: %s is required", index, field)
	}
	if _, err := ParseRef(ref); err != nil {
		return fmt.Errorf("assertions[%d]: %w", index, err)
	}
	return nil
}
