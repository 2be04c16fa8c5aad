package model

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Mode enumerates the exam mode a question belongs to.
type Mode string

const (
	ModePractice Mode = "Practice"
	ModeMock     Mode = "Mock"
)

// OptionKeys are the valid answer option keys, in display order.
var OptionKeys = []string{"A", "B", "C", "D", "E"}

// ValidOptionKey reports whether key is one of A-E.
func ValidOptionKey(key string) bool {
	for _, k := range OptionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Question is an immutable catalog entry. Loaded once from the question bank
// CSV and never mutated afterwards.
type Question struct {
	ID            string     `json:"id"`
	Category      string     `json:"category"`
	SubCategory   string     `json:"sub_category"`
	Difficulty    Difficulty `json:"difficulty"`
	Mode          Mode       `json:"mode"`
	QuestionText  string     `json:"question_text"`
	OptionA       string     `json:"option_a"`
	OptionB       string     `json:"option_b"`
	OptionC       string     `json:"option_c"`
	OptionD       string     `json:"option_d"`
	OptionE       string     `json:"option_e"`
	CorrectAnswer string     `json:"correct_answer"`
	SolutionText  string     `json:"solution_text"`
	ImageURL      string     `json:"image_url,omitempty"`
}

// QuestionForStudent is a question stripped of its correct answer and
// solution, sent to clients during an in-progress session.
type QuestionForStudent struct {
	ID           string     `json:"id"`
	Category     string     `json:"category"`
	SubCategory  string     `json:"sub_category"`
	Difficulty   Difficulty `json:"difficulty"`
	Mode         Mode       `json:"mode"`
	QuestionText string     `json:"question_text"`
	OptionA      string     `json:"option_a"`
	OptionB      string     `json:"option_b"`
	OptionC      string     `json:"option_c"`
	OptionD      string     `json:"option_d"`
	OptionE      string     `json:"option_e"`
	ImageURL     string     `json:"image_url,omitempty"`
}

// ForStudent strips grading fields from a question.
func (q Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		Category:     q.Category,
		SubCategory:  q.SubCategory,
		Difficulty:   q.Difficulty,
		Mode:         q.Mode,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
		OptionE:      q.OptionE,
		ImageURL:     q.ImageURL,
	}
}

// StripQuestions maps a question sequence to its student-safe form.
func StripQuestions(questions []Question) []QuestionForStudent {
	out := make([]QuestionForStudent, len(questions))
	for i, q := range questions {
		out[i] = q.ForStudent()
	}
	return out
}
