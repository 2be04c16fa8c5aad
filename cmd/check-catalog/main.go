package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quantprep/backend/internal/catalog"
	"github.com/quantprep/backend/internal/model"
)

// check-catalog validates a question bank CSV without starting the server.
// Exit code 0 means the server would accept the file.
func main() {
	var path string
	flag.StringVar(&path, "path", "./data/questions.csv", "Path to the question catalog CSV")
	flag.Parse()

	questions, err := catalog.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catalog invalid: %v\n", err)
		os.Exit(1)
	}

	byMode := make(map[model.Mode]int)
	byDifficulty := make(map[model.Difficulty]int)
	for _, q := range questions {
		byMode[q.Mode]++
		byDifficulty[q.Difficulty]++
	}

	fmt.Printf("Catalog OK: %d questions\n", len(questions))
	fmt.Printf("  Categories:    %d\n", len(catalog.UniqueCategories(questions)))
	fmt.Printf("  Subcategories: %d\n", len(catalog.UniqueSubCategories(questions)))
	for _, mode := range []model.Mode{model.ModePractice, model.ModeMock} {
		fmt.Printf("  %-9s %d\n", string(mode)+":", byMode[mode])
	}
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		fmt.Printf("  %-9s %d\n", string(d)+":", byDifficulty[d])
	}
}
