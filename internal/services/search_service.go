// Package services provides business logic layer for the FGBMFI RMM
// application. This file implements delegate search for the registrar desk.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/codes"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/models"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/normalize"
	"github.com/fgbmfisw7dsm-arry/fgbmfi-ng-rmm-app/internal/repository"
)

// searchResultCap bounds a single search response. A query matching more than
// this many delegates needs refining, not scrolling.
const searchResultCap = 100

// SearchService locates delegates for the registrar desk and annotates each
// candidate with its check-in status for the requested scope and its freshly
// derived event code.
//
// Search is NOT district-restricted: any registrar may locate any delegate.
// The district rule lives on the code fast path only.
type SearchService struct {
	delegates *repository.DelegateRepository
	checkIns  *repository.CheckInRepository
}

// NewSearchService creates a SearchService wired to the repository layer.
func NewSearchService() *SearchService {
	return &SearchService{
		delegates: repository.NewDelegateRepository(),
		checkIns:  repository.NewCheckInRepository(),
	}
}

// Search finds delegates matching query by name or phone, case-insensitively.
//
// Queries shorter than two characters are refused — a one-letter pattern
// matches most of the master list and degenerates into a table dump. The
// optional districtFilter narrows results to one district using normalized
// comparison; blank means no filter.
//
// Parameters:
//   - ctx: Request context; bounded internally by the persistence timeout
//   - eventID: Event whose check-in status and codes annotate the results
//   - sessionID: Session scope for the status annotation; nil = master arrival
//   - query: Name or phone fragment (trimmed here)
//   - districtFilter: Optional district narrowing, "" = all districts
//
// Returns:
//   - []models.DelegateSearchResult: At most searchResultCap annotated rows
//   - error: ErrValidation (wrapped) for short queries, infra failure else
func (s *SearchService) Search(ctx context.Context, eventID int, sessionID *int, query, districtFilter string) ([]models.DelegateSearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < 2 {
		return nil, fmt.Errorf("search query needs at least 2 characters: %w", ErrValidation)
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	candidates, err := s.delegates.Search(ctx, trimmed, searchResultCap)
	if err != nil {
		return nil, infraErr("search delegates", err)
	}

	if districtFilter != "" {
		filtered := candidates[:0]
		for _, d := range candidates {
			if normalize.Equal(districtFilter, d.District) {
				filtered = append(filtered, d)
			}
		}
		candidates = filtered
	}

	ids := make([]int, len(candidates))
	for i, d := range candidates {
		ids[i] = d.ID
	}

	checked, err := s.checkIns.CheckedInSet(ctx, eventID, sessionID, ids)
	if err != nil {
		return nil, infraErr("search: resolve check-in status", err)
	}

	eventSalt := strconv.Itoa(eventID)
	results := make([]models.DelegateSearchResult, len(candidates))
	for i, d := range candidates {
		results[i] = models.DelegateSearchResult{
			Delegate:    d,
			CheckedIn:   checked[d.ID],
			DerivedCode: codes.DeriveCode(strconv.Itoa(d.ID), eventSalt),
		}
	}

	return results, nil
}
