// Package limitsfile reads and writes the control limits JSON record
// ({"T2_limit": ..., "Q_limit": ...}).
package limitsfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"pcadash/domain/insights"
	apperrors "pcadash/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// document mirrors the file; pointers let validation tell a missing field from zero.
type document struct {
	T2Limit *float64 `json:"T2_limit" validate:"required"`
	QLimit  *float64 `json:"Q_limit" validate:"required"`
}

// Load reads and validates the limits file.
func Load(path string) (insights.Limits, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return insights.Limits{}, apperrors.WithCode(apperrors.CodeLimitsInvalid, fmt.Errorf("limits file %s not found", path))
		}
		return insights.Limits{}, apperrors.WithCode(apperrors.CodeLimitsInvalid, fmt.Errorf("failed to read limits file %s: %w", path, err))
	}
	limits, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return insights.Limits{}, apperrors.Wrapf(err, "invalid limits file %s", path)
	}
	return limits, nil
}

// Decode parses a limits record. Unknown fields are rejected.
func Decode(r io.Reader) (insights.Limits, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return insights.Limits{}, apperrors.WithCode(apperrors.CodeLimitsInvalid, fmt.Errorf("malformed limits JSON: %w", err))
	}
	if err := validate.Struct(doc); err != nil {
		return insights.Limits{}, apperrors.WithCode(apperrors.CodeLimitsInvalid, describe(err))
	}

	limits := insights.Limits{T2Limit: *doc.T2Limit, QLimit: *doc.QLimit}
	if err := limits.Validate(); err != nil {
		return insights.Limits{}, apperrors.WithCode(apperrors.CodeLimitsInvalid, err)
	}
	return limits, nil
}

func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	names := map[string]string{"T2Limit": "T2_limit", "QLimit": "Q_limit"}
	fe := verrs[0]
	return fmt.Errorf("field %s is %s", names[fe.Field()], fe.Tag())
}

// Save writes limits in the same format Load reads.
func Save(path string, limits insights.Limits) error {
	if err := limits.Validate(); err != nil {
		return apperrors.WithCode(apperrors.CodeLimitsInvalid, err)
	}
	raw, err := json.MarshalIndent(limits, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to encode limits")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrapf(err, "failed to create directory for %s", path)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return apperrors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
