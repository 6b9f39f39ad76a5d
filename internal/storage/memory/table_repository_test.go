package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/resto/internal/domain"
)

func TestTableRepository_UniqueNumber(t *testing.T) {
	repo := NewTableRepository()

	if err := repo.Create(domain.Table{ID: "t-1", Name: "terrace", Number: "7", Status: domain.TableStatusEmpty}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(domain.Table{ID: "t-2", Name: "hall", Number: "7"}); !errors.Is(err, domain.ErrTableNumberTaken) {
		t.Fatalf("expected ErrTableNumberTaken, got %v", err)
	}

	got, err := repo.GetByNumber("7")
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if got.ID != "t-1" {
		t.Fatalf("expected t-1, got %s", got.ID)
	}
}

func TestTableRepository_SetStatusIdempotent(t *testing.T) {
	repo := NewTableRepository()
	if err := repo.Create(domain.Table{ID: "t-1", Number: "1", Status: domain.TableStatusEmpty}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.SetStatus("t-1", domain.TableStatusBusy); err != nil {
			t.Fatalf("set status (attempt %d): %v", i+1, err)
		}
	}
	got, _ := repo.Get("t-1")
	if got.Status != domain.TableStatusBusy {
		t.Fatalf("expected busy, got %s", got.Status)
	}

	if err := repo.SetStatus("missing", domain.TableStatusBusy); !errors.Is(err, domain.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestTableRepository_SaveCollision(t *testing.T) {
	repo := NewTableRepository()
	if err := repo.Create(domain.Table{ID: "t-1", Number: "1"}); err != nil {
		t.Fatalf("create t-1: %v", err)
	}
	if err := repo.Create(domain.Table{ID: "t-2", Number: "2"}); err != nil {
		t.Fatalf("create t-2: %v", err)
	}

	second, _ := repo.Get("t-2")
	second.Number = "1"
	if err := repo.Save(second); !errors.Is(err, domain.ErrTableNumberTaken) {
		t.Fatalf("expected ErrTableNumberTaken on save, got %v", err)
	}
}
