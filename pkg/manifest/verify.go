package manifest

import (
	"github.com/arthur-debert/unisync/pkg/logging"
	"github.com/arthur-debert/unisync/pkg/types"
)

// Verifier classifies a single link artifact. Satisfied by
// link.Operator; defined here so verification can be tested without a
// real filesystem.
type Verifier interface {
	VerifyLink(linkPath, source, wantHash string) (types.LinkStatus, error)
}

// VerifyAll re-derives the status of every entry by resolving each of
// its link paths. One failing entry never aborts the scan; it is
// counted Broken and the scan moves on. Updated statuses are written
// back to the store.
func VerifyAll(st Store, v Verifier) types.HealthReport {
	logger := logging.GetLogger("manifest.verify")
	var report types.HealthReport

	for _, res := range st.All() {
		status := verifyEntry(res, v)

		if status != res.Status {
			res.Status = status
			if err := st.Upsert(res); err != nil {
				logger.Warn().Err(err).Str("source", res.SourcePath).
					Msg("Failed to persist verified status")
			}
		}

		switch status {
		case types.StatusActive:
			report.Active++
		case types.StatusBroken:
			report.Broken++
			report.BrokenPaths = append(report.BrokenPaths, res.LinkPaths...)
		case types.StatusStale:
			report.Stale++
			report.StalePaths = append(report.StalePaths, res.SourcePath)
		case types.StatusPending:
			report.Pending++
		}
	}

	return report
}

// verifyEntry returns the worst status across the entry's link paths:
// Broken beats Stale beats Active. Entries never attempted stay
// Pending until their first creation.
func verifyEntry(res LinkedResource, v Verifier) types.LinkStatus {
	if res.Status == types.StatusPending && len(res.LinkPaths) == 0 {
		return types.StatusPending
	}

	worst := types.StatusActive
	for _, lp := range res.LinkPaths {
		status, err := v.VerifyLink(lp, res.SourcePath, res.ContentHash)
		if err != nil {
			logger := logging.GetLogger("manifest.verify")
			logger.Warn().Err(err).
				Str("link", lp).Msg("Verification error, treating as broken")
			status = types.StatusBroken
		}
		if res.Status == types.StatusPending && status == types.StatusBroken {
			// Never created yet; a missing artifact is expected.
			status = types.StatusPending
		}
		worst = worse(worst, status)
	}
	return worst
}

func worse(a, b types.LinkStatus) types.LinkStatus {
	rank := map[types.LinkStatus]int{
		types.StatusActive:  0,
		types.StatusPending: 1,
		types.StatusStale:   2,
		types.StatusBroken:  3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
