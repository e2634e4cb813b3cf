package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"pkm-review-api/models"
)

// SkorKosong is the disallowed middle value of the 1-7 scale. The scale
// labels 1 (poor) through 7 (excellent) but deliberately leaves 4 without
// a label; reviewers must commit to one side.
const SkorKosong = 4

// ChecklistEntry is one reviewer's error flag for one administrative
// criterion.
type ChecklistEntry struct {
	KriteriaID int  `json:"kriteria_id"`
	Kesalahan  bool `json:"kesalahan"`
}

// ErrorUnionItem is one criterion flagged by at least one reviewer.
type ErrorUnionItem struct {
	KriteriaID    int `json:"kriteria_id"`
	ReviewerCount int `json:"reviewer_count"`
}

// ErrorUnion aggregates administrative errors across all reviewers of a
// proposal.
type ErrorUnion struct {
	Total int              `json:"total"`
	Items []ErrorUnionItem `json:"items"`
}

// ComputeErrorUnion merges the completed administrative checklists of a
// proposal's reviewers. A criterion appears in the result when at least
// one reviewer flagged it (logical OR), annotated with how many did.
// Zero completed assessments yield an empty union with total 0.
func ComputeErrorUnion(checklists [][]ChecklistEntry) ErrorUnion {
	counts := make(map[int]int)
	for _, checklist := range checklists {
		for _, entry := range checklist {
			if entry.Kesalahan {
				counts[entry.KriteriaID]++
			}
		}
	}

	items := make([]ErrorUnionItem, 0, len(counts))
	for kriteriaID, n := range counts {
		items = append(items, ErrorUnionItem{KriteriaID: kriteriaID, ReviewerCount: n})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].KriteriaID < items[j].KriteriaID
	})

	return ErrorUnion{Total: len(items), Items: items}
}

// ScoreEntry is one reviewer's score for one substantive criterion.
type ScoreEntry struct {
	KriteriaID int `json:"kriteria_id"`
	Skor       int `json:"skor"`
}

// ComputeSubstansiTotal validates one reviewer's scores against the
// skema's criterion definitions and accumulates skor x bobot exactly.
// Every criterion of the skema must be scored; unknown criteria,
// out-of-range scores and the disallowed value 4 are rejected. The
// returned map holds the per-criterion line value (skor x bobot).
func ComputeSubstansiTotal(entries []ScoreEntry, criteria []models.KriteriaSubstansi) (decimal.Decimal, map[int]decimal.Decimal, error) {
	byID := make(map[int]models.KriteriaSubstansi, len(criteria))
	for _, k := range criteria {
		byID[k.KriteriaID] = k
	}

	total := decimal.Zero
	lines := make(map[int]decimal.Decimal, len(entries))
	for _, entry := range entries {
		k, ok := byID[entry.KriteriaID]
		if !ok {
			return decimal.Zero, nil, BadRequest(fmt.Sprintf("Criterion %d does not belong to this skema", entry.KriteriaID))
		}
		if _, dup := lines[entry.KriteriaID]; dup {
			return decimal.Zero, nil, BadRequest(fmt.Sprintf("Criterion %d is scored twice", entry.KriteriaID))
		}
		if entry.Skor == SkorKosong {
			return decimal.Zero, nil, BadRequest(fmt.Sprintf("Score 4 is not allowed for criterion %d", entry.KriteriaID))
		}
		if entry.Skor < k.SkorMin || entry.Skor > k.SkorMax {
			return decimal.Zero, nil, BadRequest(fmt.Sprintf("Score for criterion %d must be between %d and %d", entry.KriteriaID, k.SkorMin, k.SkorMax))
		}

		nilai := k.Bobot.Mul(decimal.NewFromInt(int64(entry.Skor)))
		lines[entry.KriteriaID] = nilai
		total = total.Add(nilai)
	}

	if len(lines) != len(byID) {
		for _, k := range criteria {
			if _, ok := lines[k.KriteriaID]; !ok {
				return decimal.Zero, nil, BadRequest(fmt.Sprintf("Criterion %d is missing a score", k.KriteriaID))
			}
		}
	}

	return total, lines, nil
}
