package services

import (
	"errors"
	"testing"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
	"github.com/GregMSThompson/dispatch-backend/internal/models"
)

func defaultCount(accounts []models.BankAccount) int {
	n := 0
	for _, a := range accounts {
		if a.IsDefault {
			n++
		}
	}
	return n
}

func TestDefaultAccountScenario(t *testing.T) {
	accounts := OnAdd(nil, models.BankAccount{AccountID: "first", IsDefault: false})
	if !accounts[0].IsDefault {
		t.Fatal("first account should become default")
	}

	accounts = OnAdd(accounts, models.BankAccount{AccountID: "second", IsDefault: true})
	if accounts[1].IsDefault {
		t.Fatal("second account must not become default on add")
	}

	before := accounts
	accounts, err := SetDefault(accounts, "second")
	if err != nil {
		t.Fatalf("SetDefault returned error: %v", err)
	}
	if accounts[0].IsDefault || !accounts[1].IsDefault {
		t.Fatalf("expected only second to be default, got %+v", accounts)
	}
	if !before[0].IsDefault {
		t.Fatal("SetDefault modified its input")
	}
}

func TestSetDefaultUnknownLeavesListUnchanged(t *testing.T) {
	accounts := OnAdd(nil, models.BankAccount{AccountID: "a"})
	got, err := SetDefault(accounts, "missing")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(got) != 1 || !got[0].IsDefault {
		t.Fatalf("list changed: %+v", got)
	}
}

func TestOnDeleteDoesNotPromote(t *testing.T) {
	accounts := OnAdd(nil, models.BankAccount{AccountID: "a"})
	accounts = OnAdd(accounts, models.BankAccount{AccountID: "b"})

	accounts, err := OnDelete(accounts, "a")
	if err != nil {
		t.Fatalf("OnDelete returned error: %v", err)
	}
	if len(accounts) != 1 || accounts[0].AccountID != "b" {
		t.Fatalf("unexpected accounts %+v", accounts)
	}
	if defaultCount(accounts) != 0 {
		t.Fatal("deleting the default must not promote another account")
	}

	if _, err := OnDelete(accounts, "a"); err == nil {
		t.Fatal("expected NotFoundError deleting twice")
	}
}

func TestAtMostOneDefaultOverSequences(t *testing.T) {
	type op struct {
		kind string
		id   string
	}
	sequences := [][]op{
		{{"add", "a"}, {"add", "b"}, {"add", "c"}, {"set", "c"}, {"set", "a"}, {"del", "a"}, {"add", "d"}, {"set", "d"}},
		{{"add", "a"}, {"del", "a"}, {"add", "b"}, {"add", "c"}, {"set", "missing"}, {"set", "c"}, {"del", "b"}},
		{{"set", "x"}, {"add", "x"}, {"add", "y"}, {"set", "y"}, {"set", "y"}, {"del", "y"}, {"set", "x"}},
	}

	for i, seq := range sequences {
		var accounts []models.BankAccount
		for _, o := range seq {
			switch o.kind {
			case "add":
				accounts = OnAdd(accounts, models.BankAccount{AccountID: o.id, IsDefault: true})
			case "set":
				accounts, _ = SetDefault(accounts, o.id)
			case "del":
				accounts, _ = OnDelete(accounts, o.id)
			}
			if n := defaultCount(accounts); n > 1 {
				t.Fatalf("sequence %d: %d defaults after %s %s", i, n, o.kind, o.id)
			}
		}
	}
}
