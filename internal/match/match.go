// Package match reconciles discovered forks with roster students.
package match

import (
	"github.com/dlumbrer/Code-docencia/internal/gitlabapi"
	"github.com/dlumbrer/Code-docencia/internal/roster"
	"go.uber.org/zap"
)

// Pair is a fork matched to a student, in the order matches were made.
type Pair struct {
	Fork    gitlabapi.Fork
	Student *roster.Student
}

// Forks matches every fork against the roster and mutates student records
// in place. A fork matches a student when its namespace path equals the
// student's email login or lab login. Matching is first-match-wins: once a
// student is found, later forks that also match are logged and ignored.
//
// Running the matcher counts as evaluating every student, so students who
// match nothing are explicitly marked not-found even for an empty listing.
// Students of a practice whose crawl never completed stay unknown.
func Forks(forks []gitlabapi.Fork, students *roster.Roster, logger *zap.Logger) []Pair {
	for _, login := range students.Order {
		student := students.Students[login]
		if student.Found == roster.MatchUnknown {
			student.Found = roster.MatchNotFound
		}
	}

	var matches []Pair
	for _, fork := range forks {
		for _, login := range students.Order {
			student := students.Students[login]
			if !pathMatches(fork.NamespacePath, student) {
				continue
			}
			if student.Found == roster.MatchFound {
				logger.Warn("fork matches an already matched student",
					zap.String("student", student.EmailLogin),
					zap.String("kept", student.GitLabUser),
					zap.String("ignored", fork.NamespacePath))
				continue
			}
			student.Found = roster.MatchFound
			student.GitLabUser = fork.NamespacePath
			matches = append(matches, Pair{Fork: fork, Student: student})
			logger.Info("found fork for student",
				zap.String("student", student.EmailLogin),
				zap.String("namespace", fork.NamespacePath))
		}
	}
	return matches
}

func pathMatches(path string, student *roster.Student) bool {
	if path == "" {
		return false
	}
	if path == student.EmailLogin {
		return true
	}
	return student.LabLogin != "" && path == student.LabLogin
}
