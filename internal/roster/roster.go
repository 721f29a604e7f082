// Package roster loads the student roster and enriches it with lab-system
// logins resolved from the institutional directory.
package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlumbrer/Code-docencia/internal/directory"
	"github.com/dlumbrer/Code-docencia/internal/identity"
	"go.uber.org/zap"
)

// Roster CSV column headers, as exported by the course platform.
const (
	ColName    = "Nombre"
	ColSurname = "Apellido(s)"
	ColEmail   = "Dirección de correo"
	ColLab     = "Usuario Lab"
	ColGitLab  = "Usuario Gitlab"
)

// MatchState records whether a student's fork has been looked for.
type MatchState int

const (
	// MatchUnknown means the matcher never evaluated this student.
	MatchUnknown MatchState = iota
	// MatchNotFound means the matcher evaluated this student and found no fork.
	MatchNotFound
	// MatchFound means a fork was matched to this student.
	MatchFound
)

// Student is one roster row.
type Student struct {
	Email          string
	EmailLogin     string
	GivenName      string
	Surname        string
	FullName       string // lowercase "name surname"
	NormalizedName string // FullName with diacritics stripped
	LabLogin       string
	GitLabUser     string
	Found          MatchState
}

// DisplayName returns "GivenName Surname" for report messages.
func (s *Student) DisplayName() string {
	return s.GivenName + " " + s.Surname
}

// Roster is the loaded student mapping, keyed by email login.
type Roster struct {
	Path     string
	Students map[string]*Student
	// Order lists email logins in file order for deterministic iteration.
	Order []string
	// Modified is true when at least one record required directory resolution.
	Modified bool
}

// Len returns the number of students.
func (r *Roster) Len() int {
	return len(r.Order)
}

// Load parses the roster file and resolves missing lab logins through the
// resolver. A resolution failure for a single student is logged and leaves
// that student's lab login empty; malformed rows are fatal.
func Load(ctx context.Context, path string, resolver directory.Resolver, logger *zap.Logger) (*Roster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	roster, err := parse(ctx, file, resolver, logger)
	if err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	roster.Path = path
	return roster, nil
}

func parse(ctx context.Context, reader io.Reader, resolver directory.Resolver, logger *zap.Logger) (*Roster, error) {
	csvReader := csv.NewReader(reader)

	header, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	if len(header) > 0 {
		// The course platform sometimes prefixes the first header with a BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColName, ColSurname, ColEmail} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	labCol, hasLab := columns[ColLab]
	gitlabCol, hasGitLab := columns[ColGitLab]

	roster := &Roster{
		Students: make(map[string]*Student),
	}

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}

		email := strings.TrimSpace(row[columns[ColEmail]])
		emailLogin, _, _ := strings.Cut(email, "@")
		if emailLogin == "" {
			return nil, fmt.Errorf("row has empty email address")
		}

		student := &Student{
			Email:      email,
			EmailLogin: emailLogin,
			GivenName:  strings.TrimSpace(row[columns[ColName]]),
			Surname:    strings.TrimSpace(row[columns[ColSurname]]),
		}
		student.FullName = strings.ToLower(student.GivenName + " " + student.Surname)
		student.NormalizedName = identity.Normalize(student.FullName)

		if hasGitLab {
			student.GitLabUser = strings.TrimSpace(row[gitlabCol])
		}

		if hasLab {
			student.LabLogin = strings.TrimSpace(row[labCol])
		} else {
			student.LabLogin = resolveLabLogin(ctx, resolver, student, logger)
			roster.Modified = true
		}

		roster.Students[emailLogin] = student
		roster.Order = append(roster.Order, emailLogin)
	}

	return roster, nil
}

// resolveLabLogin queries the directory and accepts the first entry whose
// normalized display name is contained in the student's normalized full name.
func resolveLabLogin(ctx context.Context, resolver directory.Resolver, student *Student, logger *zap.Logger) string {
	if resolver == nil {
		return ""
	}
	entries, err := resolver.Resolve(ctx, student.NormalizedName)
	if err != nil {
		logger.Warn("directory lookup failed",
			zap.String("student", student.EmailLogin),
			zap.Error(err))
		return ""
	}

	target := strings.ReplaceAll(student.NormalizedName, " ", "")
	for _, entry := range entries {
		candidate := identity.Normalize(strings.ToLower(entry.DisplayName))
		candidate = strings.ReplaceAll(candidate, " ", "")
		if candidate != "" && strings.Contains(target, candidate) {
			return entry.Login
		}
	}
	return ""
}

// BaseName returns the roster file name without directory or .csv suffix,
// used to key per-roster clone directories.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".csv")
}

// EnrichedPath derives the enriched export path next to the roster file.
func EnrichedPath(path string) string {
	return strings.TrimSuffix(path, ".csv") + "_enriched.csv"
}
