package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates the search backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used in Report.Checks.
const (
	ComponentSearch     = "search"
	ComponentExclusions = "exclusions"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	search     Pinger
	exclusions Pinger
}

// New creates a Service. exclusions can be nil.
func New(search, exclusions Pinger) *Service {
	return &Service{search: search, exclusions: exclusions}
}

// Check runs health checks against all components. Without the search
// backend no page can render, so its failure makes the service unhealthy.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentSearch] = probe(ctx, s.search)
	if s.exclusions != nil {
		checks[ComponentExclusions] = probe(ctx, s.exclusions)
	}

	status := Healthy
	switch {
	case checks[ComponentSearch] == CheckError:
		status = Unhealthy
	case checks[ComponentExclusions] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
