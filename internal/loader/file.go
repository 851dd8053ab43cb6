package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// File is a batch of already-parsed logs in YAML form.
//
//	entities:
//	  - {id: 1, name: Canada, prefix: "VE VA VO VY", continent: NA}
//	invalid_calls: [K6XXX]
//	logs:
//	  - callsign: W6YX
//	    location: SCLA
//	    qsos:
//	      - "7025 CW 01:00 12 SCLA K6ABC 7 ALAM"
type File struct {
	Entities     []EntityRecord `yaml:"entities,omitempty" validate:"dive"`
	InvalidCalls []string       `yaml:"invalid_calls,omitempty"`
	Logs         []LogRecord    `yaml:"logs" validate:"dive"`
}

// EntityRecord is a DXCC entity row.
type EntityRecord struct {
	ID        int64  `yaml:"id" validate:"required,gt=0"`
	Name      string `yaml:"name" validate:"required"`
	Prefix    string `yaml:"prefix" validate:"required"`
	Continent string `yaml:"continent,omitempty"`
}

// LogRecord is one submitted log with its QSO lines.
type LogRecord struct {
	LogInfo `yaml:",inline"`
	QSOs    []string `yaml:"qsos"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReadFile decodes a log batch, rejecting unknown fields.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return DecodeFile(data)
}

// DecodeFile decodes a log batch from YAML.
func DecodeFile(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse log file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required fields of every record.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid log file: %w", err)
	}
	return nil
}

// Stats counts what Apply stored.
type Stats struct {
	Entities int
	Logs     int
	QSOs     int
}

// Apply stores every entity, log and QSO line of f. Logs are loaded before
// invalid-call overrides so that an override also covers submitted calls.
func (c *Contest) Apply(ctx context.Context, f *File) (Stats, error) {
	var st Stats
	for _, e := range f.Entities {
		if err := c.AddEntity(ctx, model.Entity{
			ID: e.ID, Name: e.Name, Prefix: model.NormalizeText(e.Prefix), Continent: e.Continent,
		}); err != nil {
			return st, err
		}
		st.Entities++
	}
	for _, rec := range f.Logs {
		logID, err := c.AddLog(ctx, rec.LogInfo)
		if err != nil {
			return st, err
		}
		st.Logs++
		for _, line := range rec.QSOs {
			if _, err := c.AddQSO(ctx, logID, line); err != nil {
				return st, err
			}
			st.QSOs++
		}
	}
	for _, call := range f.InvalidCalls {
		if err := c.SetValid(ctx, call, false); err != nil {
			return st, err
		}
	}
	return st, nil
}
