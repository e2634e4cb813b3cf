package services

import (
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
)

func skemaStep() *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT \\* FROM `skema` WHERE skema_id = \\? AND delete_at IS NULL"),
		columns: []string{"skema_id", "skema_name"},
		rows:    [][]driver.Value{{int64(1), "PKM-K"}},
	}
}

func bobotSumStep(total string) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT COALESCE\\(SUM\\(bobot\\), 0\\) AS total FROM kriteria_substansi WHERE skema_id = \\? AND delete_at IS NULL"),
		args:    []driver.Value{int64(1)},
		columns: []string{"total"},
		rows:    [][]driver.Value{{total}},
	}
}

func TestCreateSubstansiRejectsNonPositiveBobot(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	in := KriteriaSubstansiInput{SkemaID: 1, Deskripsi: "Kreativitas", SkorMin: 1, SkorMax: 7}
	_, err := NewCriteriaService(db).CreateSubstansi(in)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateSubstansiRejectsInvalidScoreRange(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	in := KriteriaSubstansiInput{
		SkemaID:   1,
		Deskripsi: "Kreativitas",
		Bobot:     decimal.NewFromInt(20),
		SkorMin:   5,
		SkorMax:   3,
	}
	_, err := NewCriteriaService(db).CreateSubstansi(in)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateSubstansiRejectsWeightSumOver100(t *testing.T) {
	steps := []*queryStep{skemaStep(), bobotSumStep("85.50")}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	in := KriteriaSubstansiInput{
		SkemaID:   1,
		Deskripsi: "Kebaruan",
		Bobot:     decimal.NewFromInt(15),
		SkorMin:   1,
		SkorMax:   7,
	}
	_, err := NewCriteriaService(db).CreateSubstansi(in)
	if KindOf(err) != KindBadRequest {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateSubstansiAcceptsWeightAtExactly100(t *testing.T) {
	steps := []*queryStep{
		skemaStep(),
		bobotSumStep("85.50"),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `kriteria_substansi`"),
			result:  scriptedResult{lastInsertID: 9, rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	in := KriteriaSubstansiInput{
		SkemaID:   1,
		Deskripsi: "Kebaruan",
		Bobot:     decimal.RequireFromString("14.50"),
		SkorMin:   1,
		SkorMax:   7,
	}
	criterion, err := NewCriteriaService(db).CreateSubstansi(in)
	if err != nil {
		t.Fatalf("CreateSubstansi returned error: %v", err)
	}
	if criterion.KriteriaID != 9 {
		t.Fatalf("expected kriteria_id 9, got %d", criterion.KriteriaID)
	}
	if !criterion.Bobot.Equal(decimal.RequireFromString("14.50")) {
		t.Fatalf("unexpected bobot %s", criterion.Bobot)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateSubstansiUnknownSkema(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `skema` WHERE skema_id = \\? AND delete_at IS NULL"),
			columns: []string{"skema_id", "skema_name"},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	in := KriteriaSubstansiInput{
		SkemaID:   9,
		Deskripsi: "Kreativitas",
		Bobot:     decimal.NewFromInt(20),
		SkorMin:   1,
		SkorMax:   7,
	}
	_, err := NewCriteriaService(db).CreateSubstansi(in)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
