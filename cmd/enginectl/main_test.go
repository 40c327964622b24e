package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viralforge/mesh/services/financial-rails/M42-commission-engine/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEligibilityCommand(t *testing.T) {
	t.Parallel()
	out, err := execute(t, "eligibility", "--sales", "14000")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var got domain.Eligibility
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	if got.KeyActive || !got.AtRisk || got.ShortfallToKey != 1000 {
		t.Fatalf("eligibility = %+v", got)
	}
}

func TestBudgetCommand(t *testing.T) {
	t.Parallel()
	out, err := execute(t, "budget", "--week-index", "3", "--sales", "2500")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var got domain.BudgetResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	if got.CappedBudget != 800 || got.OverflowOut != 200 || got.IsInitialPeriod {
		t.Fatalf("budget = %+v", got)
	}

	if _, err := execute(t, "budget", "--week-index", "-1"); err == nil {
		t.Fatalf("negative week index should fail")
	}
}

func TestTokenCommandUsesConfigSecret(t *testing.T) {
	t.Parallel()
	out, err := execute(t, "token", "--sub", "agent-7", "--config", filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.Count(strings.TrimSpace(out), ".") != 2 {
		t.Fatalf("token = %q", out)
	}
}
