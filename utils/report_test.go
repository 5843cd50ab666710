package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadReport(t *testing.T) {
	tmpDir := t.TempDir()
	reportFile := filepath.Join(tmpDir, "report.json")

	report := &RunReport{
		Version: ReportVersion,
		Window:  "full",
		Keys: []KeyReport{
			{
				TileX: 1,
				TileY: 2,
				Key:   "2b7e",
				Bytes: []ByteReport{
					{Position: 0, Value: "2b", Peak: 0.98, Traces: 5000, Observed: 256},
					{Position: 1, Value: "7e", Peak: 0.91, Traces: 5000, Observed: 256},
				},
			},
		},
	}

	if err := SaveReport(reportFile, report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	loaded, err := LoadReport(reportFile)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}

	if loaded.Version != ReportVersion {
		t.Errorf("Version = %s, want %s", loaded.Version, ReportVersion)
	}
	if len(loaded.Keys) != 1 {
		t.Fatalf("Keys count = %d, want 1", len(loaded.Keys))
	}
	k := loaded.Keys[0]
	if k.TileX != 1 || k.TileY != 2 || k.Key != "2b7e" {
		t.Errorf("unexpected key report: %+v", k)
	}
	if len(k.Bytes) != 2 || k.Bytes[1].Value != "7e" || k.Bytes[1].Peak != 0.91 {
		t.Errorf("unexpected byte reports: %+v", k.Bytes)
	}
}

func TestLoadReportNotFound(t *testing.T) {
	_, err := LoadReport("/nonexistent/path/report.json")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadReportInvalidJSON(t *testing.T) {
	badFile := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badFile, []byte("not valid json"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := LoadReport(badFile); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
