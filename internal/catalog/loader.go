package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quantprep/backend/internal/model"
)

// ErrLoad wraps any failure to read or parse the question bank. The catalog
// handler maps it to a retryable error distinct from an empty catalog.
var ErrLoad = errors.New("catalog load failed")

// requiredColumns are the headers every question bank CSV must carry.
// Image_URL is optional.
var requiredColumns = []string{
	"ID", "Category", "SubCategory", "Difficulty", "Mode",
	"Question_Text", "Option_A", "Option_B", "Option_C", "Option_D",
	"Option_E", "Correct_Answer", "Solution_Text",
}

// Load reads a question bank CSV from disk.
func Load(path string) ([]model.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrLoad, path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads question records from a CSV stream. The first row is the
// header; rows are validated for the required columns and a correct answer
// key in A-E. Row order is preserved as catalog order.
func Parse(r io.Reader) ([]model.Question, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validate lengths per row, Image_URL is optional

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrLoad, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", ErrLoad, name)
		}
	}
	imageCol, hasImage := col["Image_URL"]

	field := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var questions []model.Question
	seen := make(map[string]bool)
	line := 1

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrLoad, line+1, err)
		}
		line++

		q := model.Question{
			ID:            field(row, "ID"),
			Category:      field(row, "Category"),
			SubCategory:   field(row, "SubCategory"),
			Difficulty:    model.Difficulty(field(row, "Difficulty")),
			Mode:          model.Mode(field(row, "Mode")),
			QuestionText:  field(row, "Question_Text"),
			OptionA:       field(row, "Option_A"),
			OptionB:       field(row, "Option_B"),
			OptionC:       field(row, "Option_C"),
			OptionD:       field(row, "Option_D"),
			OptionE:       field(row, "Option_E"),
			CorrectAnswer: field(row, "Correct_Answer"),
			SolutionText:  field(row, "Solution_Text"),
		}
		if hasImage && imageCol < len(row) {
			q.ImageURL = strings.TrimSpace(row[imageCol])
		}

		if q.ID == "" {
			return nil, fmt.Errorf("%w: line %d: empty ID", ErrLoad, line)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: line %d: duplicate ID %q", ErrLoad, line, q.ID)
		}
		if !model.ValidOptionKey(q.CorrectAnswer) {
			return nil, fmt.Errorf("%w: line %d: correct answer %q is not one of A-E", ErrLoad, line, q.CorrectAnswer)
		}

		seen[q.ID] = true
		questions = append(questions, q)
	}

	return questions, nil
}
