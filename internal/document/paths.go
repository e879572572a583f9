package document

import (
	"fmt"
	"path"
)

const (
	solutionsDir    = "solutions"
	orgSolutionsDir = "org-solutions"
)

// SolutionPath is the stable location of the normalized submission for (user, problem).
func SolutionPath(userID, problemID uint) string {
	return path.Join(solutionDir(userID, problemID), "solution.pdf")
}

// CorrectedSolutionPath is the stable location of the corrected document for (user, problem).
func CorrectedSolutionPath(userID, problemID uint) string {
	return path.Join(solutionDir(userID, problemID), "corrected.pdf")
}

// OrgSolutionPath places an organizer solution under its problem.
func OrgSolutionPath(problemID uint, name string) string {
	return path.Join(orgSolutionsDir, fmt.Sprintf("problem-%d", problemID), name+".pdf")
}

func solutionDir(userID, problemID uint) string {
	return path.Join(solutionsDir, fmt.Sprintf("user-%d", userID), fmt.Sprintf("problem-%d", problemID))
}
