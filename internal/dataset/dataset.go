// Package dataset loads the static university list and resolves optional
// fields once, so consumers never apply their own fallbacks.
package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"collegedecision/internal/datespec"
	"collegedecision/internal/listing"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/model"
)

//go:embed universities.yaml
var embedded []byte

type document struct {
	Universities []model.University `yaml:"universities"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Resolve applies defaults to u and validates it. The returned record has a
// normalized domain, an HH:MM:SS release time and an ID.
func Resolve(u model.University) (model.University, error) {
	u.Domain = listing.NormalizeDomain(u.Domain)
	u.Time = datespec.NormalizeClock(u.Time)
	if u.ID == "" {
		u.ID = u.Domain
	}
	if err := validate.Struct(u); err != nil {
		return u, fmt.Errorf("university %q: %w", u.Name, err)
	}
	return u, nil
}

// Parse decodes a YAML dataset. Records that fail validation, or repeat an
// earlier domain, are skipped and logged; the rest are returned in file
// order. Records with unparseable dates are kept so the listing can show
// them as invalid.
func Parse(data []byte) ([]model.University, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	out := make([]model.University, 0, len(doc.Universities))
	seen := make(map[string]struct{}, len(doc.Universities))
	for i, raw := range doc.Universities {
		u, err := Resolve(raw)
		if err != nil {
			appLog.Warn("dataset: skipping record", "index", i, "err", err.Error())
			continue
		}
		if _, dup := seen[u.Domain]; dup {
			appLog.Warn("dataset: skipping duplicate domain", "index", i, "domain", u.Domain)
			continue
		}
		seen[u.Domain] = struct{}{}

		if _, err := datespec.Parse(u.NotificationRegular, u.Time); err != nil {
			appLog.Warn("dataset: invalid regular date", "domain", u.Domain, "err", err.Error())
		}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, errors.New("dataset has no usable universities")
	}
	return out, nil
}

// Load reads the dataset at path, or the embedded default when path is
// empty.
func Load(path string) ([]model.University, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded dataset.
func Default() []model.University {
	list, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return list
}
