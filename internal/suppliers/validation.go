package suppliers

import (
	"fmt"
	"strings"

	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

func (s *Service) validate(sup *Supplier) error {
	if strings.TrimSpace(sup.Code) == "" {
		return fmt.Errorf("%w: supplier code is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(sup.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", httpx.ErrValidation)
	}
	if sup.Rating < 0 || sup.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", httpx.ErrValidation)
	}
	if sup.Status == "" {
		sup.Status = StatusActive
	}
	switch sup.Status {
	case StatusActive, StatusSuspended, StatusArchived:
	default:
		return fmt.Errorf("%w: unknown supplier status %q", httpx.ErrValidation, sup.Status)
	}
	return nil
}
