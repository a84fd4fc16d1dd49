package dataset

import (
	"fmt"
	"strings"
)

// FileMissingError is returned when a required input file does not exist.
type FileMissingError struct {
	File string
	Path string
}

func (e *FileMissingError) Error() string {
	return fmt.Sprintf("required data file missing: %s (expected at %s)", e.File, e.Path)
}

// Recovery lists the steps shown to the user.
func (e *FileMissingError) Recovery() []string {
	return []string{
		fmt.Sprintf("Check that %s exists at %s and has not been renamed or moved", e.File, e.Path),
		"Ensure the file is readable by the current user",
		"Download the file from the data source and place it in the data directory",
		"Point data_dir at the right directory (cannalytics config set data_dir <path>)",
	}
}

// MissingColumnsError is returned when a dataset lacks required columns.
type MissingColumnsError struct {
	File     string
	Missing  []string
	Required []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s is missing %d required column(s): %s", e.File, len(e.Missing), strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Recovery() []string {
	return []string{
		"Check that you are using the correct version of " + e.File,
		"Compare the header row with the required columns: " + strings.Join(e.Required, ", "),
		"Column names are case-sensitive and must match exactly",
	}
}

// LoadError wraps a read or parse failure for one input file.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load %s: %v", e.File, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Recovery() []string {
	return []string{
		"Check that " + e.File + " is not corrupted and is valid CSV/XLSX/GeoJSON",
		"Check the file encoding (UTF-8 expected)",
		"Run 'cannalytics quality' on a known-good copy to compare",
	}
}

// Recoverable is implemented by errors that carry recovery steps.
type Recoverable interface {
	error
	Recovery() []string
}
