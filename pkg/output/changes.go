package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/treesync/pkg/models"
)

// WriteChangesReport writes the list of changes applied (or, in dry-run
// mode, planned) to a file. Format can be "human" or "json".
// Nothing is written when the run changed nothing.
func WriteChangesReport(report *models.SyncReport, path string, format string) error {
	if len(report.Operations) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create changes report: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeChangesJSON(report, file)
	default: // "human"
		err = writeChangesHuman(report, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write changes report: %w", err)
	}

	return file.Close()
}

// writeChangesHuman writes changes grouped by action
func writeChangesHuman(report *models.SyncReport, w io.Writer) error {
	fmt.Fprintf(w, "Changes Report\n")
	fmt.Fprintf(w, "==============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Operation: %s\n", report.OperationID)
	fmt.Fprintf(w, "Source: %s\n", report.SourcePath)
	fmt.Fprintf(w, "Destination: %s\n", report.DestPath)
	fmt.Fprintf(w, "Dry Run: %v\n\n", report.DryRun)

	fmt.Fprintf(w, "Total Changes: %d\n\n", len(report.Operations))

	byAction := make(map[models.Action][]models.FileOperation)
	for _, op := range report.Operations {
		byAction[op.Action] = append(byAction[op.Action], op)
	}

	actionOrder := []models.Action{
		models.ActionMkdir,
		models.ActionCopy,
		models.ActionUpdate,
	}

	actionLabels := map[models.Action]string{
		models.ActionMkdir:  "Directories Created",
		models.ActionCopy:   "New Files",
		models.ActionUpdate: "Updated Files",
	}

	for _, action := range actionOrder {
		ops := byAction[action]
		if len(ops) == 0 {
			continue
		}

		label := fmt.Sprintf("%s (%d)", actionLabels[action], len(ops))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

		for _, op := range ops {
			fmt.Fprintf(w, "  %s\n", op.RelativePath)
			if op.Reason != "" {
				fmt.Fprintf(w, "    Reason: %s\n", op.Reason)
			}
			if op.BytesCopied > 0 {
				fmt.Fprintf(w, "    Size:   %s\n", formatBytes(op.BytesCopied))
			}
		}

		fmt.Fprintf(w, "\n")
	}

	return nil
}

// writeChangesJSON writes changes in JSON format
func writeChangesJSON(report *models.SyncReport, w io.Writer) error {
	data := NewJSONReport(report)

	output := struct {
		Generated   string              `json:"generated"`
		OperationID string              `json:"operation_id"`
		SourcePath  string              `json:"source_path"`
		DestPath    string              `json:"dest_path"`
		DryRun      bool                `json:"dry_run"`
		TotalCount  int                 `json:"total_count"`
		Changes     []JSONOperationData `json:"changes"`
	}{
		Generated:   time.Now().Format(time.RFC3339),
		OperationID: report.OperationID,
		SourcePath:  report.SourcePath,
		DestPath:    report.DestPath,
		DryRun:      report.DryRun,
		TotalCount:  len(data.Operations),
		Changes:     data.Operations,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
