// Package report writes the not-founds report and the enriched roster export.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/dlumbrer/Code-docencia/internal/roster"
)

// NotFoundsFile is the default not-founds report filename.
const NotFoundsFile = "not_founds.txt"

// WriteNotFounds writes one line per problem found for each student: a
// repository that could not be matched, and separately a lab login that
// could not be resolved. A student can appear under both.
func WriteNotFounds(path string, students *roster.Roster) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create not-founds report: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := bufio.NewWriter(file)
	for _, login := range students.Order {
		student := students.Students[login]
		if student.Found != roster.MatchFound {
			fmt.Fprintf(writer, "No se ha encontrado el repositorio del estudiante %s"+
				" con login de correo %s y usuario de laboratorio %s\n",
				student.DisplayName(), student.EmailLogin, student.LabLogin)
		}
		if student.LabLogin == "" {
			fmt.Fprintf(writer, "No se ha encontrado el usuario de laboratorio del estudiante %s"+
				" con login de correo %s\n",
				student.DisplayName(), student.EmailLogin)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("write not-founds report: %w", err)
	}
	return nil
}

// WriteEnriched writes the full roster, including resolved lab and hosting
// usernames, in the enriched CSV schema accepted back by the loader.
func WriteEnriched(path string, students *roster.Roster) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create enriched roster: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	header := []string{roster.ColName, roster.ColSurname, roster.ColEmail, roster.ColLab, roster.ColGitLab}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write enriched header: %w", err)
	}
	for _, login := range students.Order {
		student := students.Students[login]
		row := []string{
			student.GivenName,
			student.Surname,
			student.Email,
			student.LabLogin,
			student.GitLabUser,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write enriched row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write enriched roster: %w", err)
	}
	return nil
}
