package patients

import (
	"context"
	"fmt"

	"github.com/careloop/clinicdesk/pkg/logging"
)

// Draft is the pre-filled seed returned when no patient matches, routing
// the caller to the registration form.
type Draft struct {
	Mobile string `json:"mobile"`
}

// Resolution is the outcome of resolving a mobile number: exactly one of
// Found or Draft is set.
type Resolution struct {
	Found *Patient `json:"found,omitempty"`
	Draft *Draft   `json:"draft,omitempty"`
}

// Resolver finds an existing patient by mobile number or prepares a
// new-patient draft. It owns no state beyond the lookup.
type Resolver struct {
	repo   Repository
	logger *logging.Logger
}

// NewResolver creates a patient resolver
func NewResolver(repo Repository, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve validates the mobile number, then searches for a match. Invalid
// input fails fast without a lookup. When several patients share a number
// the first (oldest) match wins; callers wanting disambiguation should use
// the search endpoint, which returns all matches.
func (r *Resolver) Resolve(ctx context.Context, mobile string) (*Resolution, error) {
	normalized, err := NormalizeMobile(mobile)
	if err != nil {
		return nil, err
	}

	matches, err := r.repo.Search(ctx, normalized, 1)
	if err != nil {
		return nil, fmt.Errorf("patients: resolve %s: %w", normalized, err)
	}
	if len(matches) == 0 {
		r.logger.Info("patient not found, returning draft", "mobile", normalized)
		return &Resolution{Draft: &Draft{Mobile: normalized}}, nil
	}

	r.logger.Info("patient resolved", "mobile", normalized, "patient_id", matches[0].ID)
	return &Resolution{Found: matches[0]}, nil
}
