package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"quill/internal/config"
	"quill/internal/preflight"
	"quill/internal/testsupport"
)

func writeWorkbookFixture(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{{"Content", "Status"}, {"Hello", "Done"}, {"World", "Pending"}}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestStatusOfflineReportsChecksAndQueue(t *testing.T) {
	configPath, _ := setupConfig(t)
	if _, _, err := runCLI(t, []string{"queue", "add", "first"}, configPath); err != nil {
		t.Fatalf("queue add: %v", err)
	}

	out, _, err := runCLI(t, []string{"status", "--offline"}, configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "sqlite")
	requireContains(t, out, "1h36m0s")
	requireContains(t, out, "X credentials")
	requireContains(t, out, "[OK] 1")
}

func TestStatusProbesPostingAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	configPath, _ := setupConfig(t, testsupport.WithBaseURL(srv.URL))

	out, _, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "X API")
	requireContains(t, out, "reachable (401)")
	requireContains(t, out, "[WARN] 0")
}

func TestStatusFailsWithoutCredentials(t *testing.T) {
	configPath, _ := setupConfig(t, testsupport.WithoutCredentials())

	out, _, err := runCLI(t, []string{"status", "--offline"}, configPath)
	if err == nil {
		t.Fatal("expected status to fail without credentials")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, err.Error(), "1 check(s) failed")
}

func TestRenderCheck(t *testing.T) {
	line := renderCheck(preflight.Result{Name: "Workbook", Detail: "missing"}, false)
	requireContains(t, line, "Workbook:")
	requireContains(t, line, "[ERROR] missing")

	colored := renderCheck(preflight.Result{Name: "Workbook", Passed: true}, true)
	if colored[:len(ansiGreen)] != ansiGreen {
		t.Fatalf("expected green prefix, got %q", colored)
	}
}

func TestStatusWarnsAboutMissingWorkbook(t *testing.T) {
	configPath, _ := setupConfig(t, testsupport.WithBackend(config.BackendWorkbook))

	out, _, err := runCLI(t, []string{"status", "--offline"}, configPath)
	if err != nil {
		t.Fatalf("missing workbook should only warn: %v\n%s", err, out)
	}
	requireContains(t, out, "Workbook directory")
	requireContains(t, out, "[WARN]")
	requireContains(t, out, "does not exist")
}
