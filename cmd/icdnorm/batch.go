package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/bastiangx/icdnorm/pkg/config"
	"github.com/bastiangx/icdnorm/pkg/ingest"
	"github.com/bastiangx/icdnorm/pkg/pipeline"
	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/bastiangx/icdnorm/pkg/results"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	totalStyle = cellStyle.Bold(true)
	failStyle  = cellStyle.Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
)

// runBatch processes every month file in dir, stores the outcome and prints a summary.
func runBatch(ctx context.Context, a *app, cfg *config.Config, dir string) error {
	files, err := ingest.ListFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files in %s", dir)
	}
	log.Debugf("Found %d input files in %s", len(files), dir)

	store, err := results.Open(cfg.Output.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := results.Run{
		ID:           results.NewRunID(time.Now()),
		StartedAt:    time.Now(),
		DictID:       a.manifest.ID,
		DictVersion:  a.manifest.Version,
		Experimental: cfg.Segment.Experimental,
		ChainSplit:   cfg.Pipeline.ChainSplit,
	}
	if err := store.BeginRun(run); err != nil {
		return err
	}

	reader := ingest.NewReader(cfg.Dict.InputEncoding)
	read := func(path string) (string, []record.Row, error) {
		// the file name, not its period, keys the stored results: two
		// files of one month must not overwrite each other
		meta, rows, err := reader.ReadFile(path)
		if err != nil {
			return meta.Name, nil, err
		}
		log.Debugf("Read %s: period %s, %d rows", meta.Name, meta.Period(), len(rows))
		return meta.Name, rows, nil
	}

	var saveErr error
	runner := pipeline.NewRunner(a.pipeline, read,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithOnFile(func(res pipeline.FileResult) {
			if err := store.SaveFile(run.ID, res); err != nil {
				log.Errorf("Failed to store %s: %v", res.Name, err)
				saveErr = errors.Join(saveErr, err)
				return
			}
			if res.Err == nil {
				log.Infof("%s: %d rows, %s correct", res.Name, res.Stats.Total, utils.FormatPercent(res.Stats.CorrectRate()))
			}
		}),
	)

	start := time.Now()
	done, total, runErr := runner.Run(ctx, files)
	if runErr != nil {
		log.Warnf("Batch interrupted: %d of %d files finished", len(done), len(files))
	}

	fmt.Println(summaryTable(done, total))
	fmt.Printf("run %s  files: %d  elapsed: %v  db: %s\n", run.ID, len(done), time.Since(start).Round(time.Millisecond), cfg.Output.DBPath)

	if cfg.Output.JSON {
		path := strings.TrimSuffix(cfg.Output.DBPath, filepath.Ext(cfg.Output.DBPath)) + "-" + run.ID + ".json"
		if err := exportJSON(store, run.ID, path); err != nil {
			return err
		}
		fmt.Printf("exported: %s\n", path)
	}
	return errors.Join(runErr, saveErr)
}

func exportJSON(store *results.Store, runID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := store.ExportJSON(runID, w); err != nil {
		return err
	}
	return w.Flush()
}

// summaryTable renders one row per file plus the total.
func summaryTable(done []pipeline.FileResult, total record.Stats) string {
	failed := make(map[int]bool)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("file", "rows", "correct", "exact", "dirty", "time")

	for i, res := range done {
		if res.Err != nil {
			failed[i] = true
			t.Row(res.Name, "-", "-", "-", "-", "failed")
			continue
		}
		s := res.Stats
		t.Row(s.Name,
			utils.FormatWithCommas(s.Total),
			utils.FormatPercent(s.CorrectRate()),
			utils.FormatPercent(s.ExactRate()),
			utils.FormatWithCommas(s.Dirty),
			res.Elapsed.Round(time.Millisecond).String(),
		)
	}
	totalRow := len(done)
	t.Row(total.Name,
		utils.FormatWithCommas(total.Total),
		utils.FormatPercent(total.CorrectRate()),
		utils.FormatPercent(total.ExactRate()),
		utils.FormatWithCommas(total.Dirty),
		"",
	)

	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case row == totalRow:
			return totalStyle
		case failed[row]:
			return failStyle
		default:
			return cellStyle
		}
	}).String()
}
