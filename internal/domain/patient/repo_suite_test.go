package patient

import (
	"context"
	"errors"
	"testing"
)

// runRepositorySuite checks the behaviour every backend must share.
func runRepositorySuite(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("ListEmpty", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.List(ctx)
		if !errors.Is(err, ErrEmptyList) {
			t.Fatalf("expected ErrEmptyList, got %v", err)
		}
	})

	t.Run("ListInInsertionOrder", func(t *testing.T) {
		repo := newRepo(t)
		cis := []string{"30", "10", "20", "5"}
		for _, ci := range cis {
			if err := repo.Create(ctx, &Patient{Name: "N" + ci, LastName: "L" + ci, CI: ci, BloodGroup: "A+"}); err != nil {
				t.Fatalf("Create(%s): %v", ci, err)
			}
		}
		got, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != len(cis) {
			t.Fatalf("expected %d patients, got %d", len(cis), len(got))
		}
		for i, ci := range cis {
			if got[i].CI != ci {
				t.Errorf("position %d: expected CI %s, got %s", i, ci, got[i].CI)
			}
		}
	})

	t.Run("GetByCI", func(t *testing.T) {
		repo := newRepo(t)
		want := &Patient{Name: "Ana", LastName: "Diaz", CI: "123", BloodGroup: "O+", Code: "PAT-0001"}
		if err := repo.Create(ctx, want); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.GetByCI(ctx, "123")
		if err != nil {
			t.Fatalf("GetByCI: %v", err)
		}
		if *got != *want {
			t.Errorf("expected %+v, got %+v", *want, *got)
		}
	})

	t.Run("GetByCINotFound", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.GetByCI(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty store, got %v", err)
		}
		repo.Create(ctx, &Patient{Name: "A", LastName: "B", CI: "1", BloodGroup: "O-"})
		if _, err := repo.GetByCI(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateChangesOnlyNames", func(t *testing.T) {
		repo := newRepo(t)
		repo.Create(ctx, &Patient{Name: "First", LastName: "One", CI: "1", BloodGroup: "A+"})
		repo.Create(ctx, &Patient{Name: "Second", LastName: "Two", CI: "2", BloodGroup: "B-", Code: "PAT-2"})
		repo.Create(ctx, &Patient{Name: "Third", LastName: "Three", CI: "3", BloodGroup: "AB+"})

		updated, err := repo.Update(ctx, "2", "Segundo", "Dos")
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		want := Patient{Name: "Segundo", LastName: "Dos", CI: "2", BloodGroup: "B-", Code: "PAT-2"}
		if *updated != want {
			t.Errorf("expected %+v, got %+v", want, *updated)
		}

		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 3 || all[1].CI != "2" {
			t.Fatalf("unexpected list after update: %+v", all)
		}
		if *all[1] != want {
			t.Errorf("stored record: expected %+v, got %+v", want, *all[1])
		}
		if all[0].Name != "First" || all[2].Name != "Third" {
			t.Errorf("other records changed: %+v, %+v", *all[0], *all[2])
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo := newRepo(t)
		if _, err := repo.Update(ctx, "missing", "a", "b"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty store, got %v", err)
		}
		repo.Create(ctx, &Patient{Name: "A", LastName: "B", CI: "1", BloodGroup: "O-"})
		if _, err := repo.Update(ctx, "missing", "a", "b"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeletePreservesOrder", func(t *testing.T) {
		repo := newRepo(t)
		for _, ci := range []string{"1", "2", "3", "4"} {
			repo.Create(ctx, &Patient{Name: "N", LastName: "L", CI: ci, BloodGroup: "O+"})
		}
		if err := repo.Delete(ctx, "2"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		all, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var got []string
		for _, p := range all {
			got = append(got, p.CI)
		}
		if len(got) != 3 || got[0] != "1" || got[1] != "3" || got[2] != "4" {
			t.Errorf("expected [1 3 4], got %v", got)
		}
	})

	t.Run("DeleteLastLeavesEmptyList", func(t *testing.T) {
		repo := newRepo(t)
		repo.Create(ctx, &Patient{Name: "N", LastName: "L", CI: "1", BloodGroup: "O+"})
		if err := repo.Delete(ctx, "1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.List(ctx); !errors.Is(err, ErrEmptyList) {
			t.Fatalf("expected ErrEmptyList, got %v", err)
		}
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on empty store, got %v", err)
		}
		repo.Create(ctx, &Patient{Name: "A", LastName: "B", CI: "1", BloodGroup: "O-"})
		if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DuplicateCIs", func(t *testing.T) {
		repo := newRepo(t)
		repo.Create(ctx, &Patient{Name: "One", LastName: "L", CI: "7", BloodGroup: "O+"})
		repo.Create(ctx, &Patient{Name: "Two", LastName: "L", CI: "7", BloodGroup: "O+"})
		repo.Create(ctx, &Patient{Name: "Other", LastName: "L", CI: "8", BloodGroup: "O+"})

		got, err := repo.GetByCI(ctx, "7")
		if err != nil || got.Name != "One" {
			t.Fatalf("expected first match One, got %+v, %v", got, err)
		}
		if _, err := repo.Update(ctx, "7", "Uno", "L"); err != nil {
			t.Fatalf("Update: %v", err)
		}
		all, _ := repo.List(ctx)
		if all[0].Name != "Uno" || all[1].Name != "Two" {
			t.Errorf("expected only the first match updated, got %s, %s", all[0].Name, all[1].Name)
		}

		if err := repo.Delete(ctx, "7"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		all, err = repo.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 1 || all[0].CI != "8" {
			t.Errorf("expected only CI 8 left, got %+v", all)
		}
	})
}
