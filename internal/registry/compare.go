package registry

import (
	"fmt"
	"strings"
)

// Comparison is the result of scoring two models against each other.
type Comparison struct {
	Winner  string
	Left    ScoredModel
	Right   ScoredModel
	UseCase string
}

// ScoredModel pairs a model entry with its comparison score.
type ScoredModel struct {
	ID    string
	Entry ModelEntry
	Score int
}

// Compare scores two registry models on speed, price, and use-case fit.
// Both models must exist in the registry.
func (r *Registry) Compare(left, right, useCase string) (*Comparison, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	leftID := ResolveModelID(left)
	rightID := ResolveModelID(right)
	leftEntry, leftOK := doc.Models[leftID]
	rightEntry, rightOK := doc.Models[rightID]
	if !leftOK || !rightOK {
		return nil, fmt.Errorf("both models must exist in the registry")
	}

	leftScore := scoreEntry(leftEntry, useCase)
	rightScore := scoreEntry(rightEntry, useCase)

	winner := "tie"
	if leftScore > rightScore {
		winner = left
	} else if rightScore > leftScore {
		winner = right
	}

	return &Comparison{
		Winner:  winner,
		Left:    ScoredModel{ID: leftID, Entry: leftEntry, Score: leftScore},
		Right:   ScoredModel{ID: rightID, Entry: rightEntry, Score: rightScore},
		UseCase: useCase,
	}, nil
}

func scoreEntry(entry ModelEntry, useCase string) int {
	total := 0

	switch entry.Speed {
	case "fastest":
		total += 3
	case "fast":
		total += 2
	case "medium":
		total += 1
	}

	inputRate := 999.0
	if entry.Cost != nil {
		inputRate = entry.Cost.InputPer1M
	}
	switch {
	case inputRate <= 0.2:
		total += 3
	case inputRate <= 1.5:
		total += 2
	default:
		total += 1
	}

	if useCase != "" {
		for _, fit := range entry.BestFor {
			if strings.Contains(strings.ToLower(fit), strings.ToLower(useCase)) {
				total += 3
				break
			}
		}
	}

	return total
}
