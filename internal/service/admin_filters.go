package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/roots-api/internal/dto"
	"github.com/noah-isme/roots-api/internal/models"
	"github.com/noah-isme/roots-api/internal/repository"
)

// ListFilter narrows an admin listing by one selectable value.
type ListFilter[T any] interface {
	Title() string
	Parameter() string
	Lookups(ctx context.Context) ([]dto.FilterOptionResponse, error)
	Apply(ctx context.Context, items []T, value string) ([]T, error)
}

// applyFilters runs every filter whose parameter is present in values.
func applyFilters[T any](ctx context.Context, items []T, filters []ListFilter[T], values map[string]string) ([]T, error) {
	for _, filter := range filters {
		value := strings.TrimSpace(values[filter.Parameter()])
		if value == "" {
			continue
		}
		var err error
		items, err = filter.Apply(ctx, items, value)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// describeFilters renders the filters with their options for the admin UI.
func describeFilters[T any](ctx context.Context, filters []ListFilter[T]) ([]dto.FilterResponse, error) {
	responses := make([]dto.FilterResponse, 0, len(filters))
	for _, filter := range filters {
		options, err := filter.Lookups(ctx)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.FilterResponse{
			Title:     filter.Title(),
			Parameter: filter.Parameter(),
			Options:   options,
		})
	}
	return responses, nil
}

// AverageSeverityAbove keeps problem sets whose average severity reaches the selected level.
type AverageSeverityAbove struct {
	Problems repository.ProblemRepository
}

func (f AverageSeverityAbove) Title() string { return "difficulty above" }

func (f AverageSeverityAbove) Parameter() string { return "difficulty_above" }

func (f AverageSeverityAbove) Lookups(ctx context.Context) ([]dto.FilterOptionResponse, error) {
	severities, err := f.Problems.ListSeverities(ctx, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	options := make([]dto.FilterOptionResponse, 0, len(severities))
	for _, severity := range severities {
		if _, ok := seen[severity.Level]; ok {
			continue
		}
		seen[severity.Level] = struct{}{}
		options = append(options, dto.FilterOptionResponse{
			Value: strconv.Itoa(severity.Level),
			Label: severity.Name,
		})
	}
	return options, nil
}

func (f AverageSeverityAbove) Apply(_ context.Context, sets []models.ProblemSet, value string) ([]models.ProblemSet, error) {
	level, err := strconv.Atoi(value)
	if err != nil {
		return nil, &ValidationError{Messages: []string{fmt.Sprintf("%s: %q is not a severity level", f.Parameter(), value)}}
	}

	kept := make([]models.ProblemSet, 0, len(sets))
	for _, set := range sets {
		average, ok := set.AverageSeverity()
		if ok && average >= float64(level) {
			kept = append(kept, set)
		}
	}
	return kept, nil
}

// CurrentSeasonProblem keeps solutions of one problem from the active season.
type CurrentSeasonProblem struct {
	Seasons SeasonService
}

func (f CurrentSeasonProblem) Title() string { return "problems of the current season" }

func (f CurrentSeasonProblem) Parameter() string { return "current_season_problem" }

func (f CurrentSeasonProblem) Lookups(ctx context.Context) ([]dto.FilterOptionResponse, error) {
	season, err := f.Seasons.ActiveSeason(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveSeason) || errors.Is(err, ErrCompetitionNotFound) {
			return []dto.FilterOptionResponse{}, nil
		}
		return nil, err
	}

	members := seasonMembers(season)
	options := make([]dto.FilterOptionResponse, 0, len(members))
	for _, member := range members {
		options = append(options, dto.FilterOptionResponse{
			Value: strconv.FormatUint(uint64(member.ProblemID), 10),
			Label: problemLabel(member.Problem, member.ProblemID),
		})
	}
	return options, nil
}

func (f CurrentSeasonProblem) Apply(_ context.Context, solutions []models.UserSolution, value string) ([]models.UserSolution, error) {
	problemID, err := parseFilterID(f.Parameter(), value)
	if err != nil {
		return nil, err
	}

	kept := make([]models.UserSolution, 0, len(solutions))
	for _, solution := range solutions {
		if solution.ProblemID == problemID {
			kept = append(kept, solution)
		}
	}
	return kept, nil
}

// CurrentSeasonUser keeps solutions of one competitor of the active season.
type CurrentSeasonUser struct {
	Seasons SeasonService
}

func (f CurrentSeasonUser) Title() string { return "competitors of the current season" }

func (f CurrentSeasonUser) Parameter() string { return "current_season_user" }

func (f CurrentSeasonUser) Lookups(ctx context.Context) ([]dto.FilterOptionResponse, error) {
	users, err := f.Seasons.Competitors(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveSeason) || errors.Is(err, ErrCompetitionNotFound) {
			return []dto.FilterOptionResponse{}, nil
		}
		return nil, err
	}

	options := make([]dto.FilterOptionResponse, 0, len(users))
	for _, user := range users {
		options = append(options, dto.FilterOptionResponse{
			Value: strconv.FormatUint(uint64(user.ID), 10),
			Label: user.DisplayName(),
		})
	}
	return options, nil
}

func (f CurrentSeasonUser) Apply(_ context.Context, solutions []models.UserSolution, value string) ([]models.UserSolution, error) {
	userID, err := parseFilterID(f.Parameter(), value)
	if err != nil {
		return nil, err
	}

	kept := make([]models.UserSolution, 0, len(solutions))
	for _, solution := range solutions {
		if solution.UserID == userID {
			kept = append(kept, solution)
		}
	}
	return kept, nil
}

func parseFilterID(parameter, value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Messages: []string{fmt.Sprintf("%s: %q is not a valid id", parameter, value)}}
	}
	return uint(id), nil
}

func problemLabel(problem models.Problem, id uint) string {
	text := strings.TrimSpace(strictPolicy.Sanitize(problem.Text))
	const maxLabel = 60
	if runes := []rune(text); len(runes) > maxLabel {
		text = string(runes[:maxLabel]) + "…"
	}
	if text == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("#%d %s", id, text)
}
