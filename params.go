package rawdec

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/vearutop/rawdec/engine"
	"gopkg.in/yaml.v3"
)

// DefaultParams returns the engine's initial output parameters.
func DefaultParams() OutputParams {
	return engine.DefaultParams()
}

// ParseParams decodes YAML output parameters on top of base. Keys absent from
// data keep the base value, unknown keys are rejected.
func ParseParams(data []byte, base OutputParams) (OutputParams, error) {
	p := base
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return base, fmt.Errorf("parse params: %w", err)
	}
	if err := ValidateParams(p); err != nil {
		return base, err
	}
	return p, nil
}

// LoadParams reads a YAML params file, see ParseParams.
func LoadParams(path string, base OutputParams) (OutputParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	return ParseParams(data, base)
}

// ValidateParams checks value ranges the engine does not check itself.
func ValidateParams(p OutputParams) error {
	var errs []error
	if p.OutputBPS != 8 && p.OutputBPS != 16 {
		errs = append(errs, fmt.Errorf("output_bps must be 8 or 16, got %d", p.OutputBPS))
	}
	if p.Highlight < 0 || p.Highlight > 9 {
		errs = append(errs, fmt.Errorf("highlight must be in [0, 9], got %d", p.Highlight))
	}
	if p.Bright <= 0 {
		errs = append(errs, fmt.Errorf("bright must be positive, got %g", p.Bright))
	}
	if p.Gamma[0] <= 0 {
		errs = append(errs, fmt.Errorf("gamma power must be positive, got %g", p.Gamma[0]))
	}
	if p.MedPasses < 0 {
		errs = append(errs, fmt.Errorf("med_passes must not be negative, got %d", p.MedPasses))
	}
	if p.UserFlip < -1 || p.UserFlip > 7 {
		errs = append(errs, fmt.Errorf("user_flip must be -1 or a flip mask in [0, 7], got %d", p.UserFlip))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid params: %w", errors.Join(errs...))
	}
	return nil
}
