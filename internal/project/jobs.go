package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/lotcut/internal/model"
)

// JobExt is the file extension of saved jobs.
const JobExt = ".lotcut.json"

// MaxRecentJobs bounds the recent-jobs list kept in the config.
const MaxRecentJobs = 10

// SaveJob writes a job, including its last result, to path.
func SaveJob(path string, job model.Job) error {
	if err := writeJSON(path, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// LoadJob reads a job from path. Nil slices are replaced with empty ones
// and missing settings fall back to the defaults.
func LoadJob(path string) (model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Job{}, fmt.Errorf("failed to read job file: %w", err)
	}
	job := model.NewJob()
	if err := json.Unmarshal(data, &job); err != nil {
		return model.Job{}, fmt.Errorf("failed to parse job file: %w", err)
	}
	if job.Orders == nil {
		job.Orders = []model.OrderRow{}
	}
	if job.Rolls == nil {
		job.Rolls = []model.Roll{}
	}
	return job, nil
}

// AddRecentJob moves path to the front of the config's recent jobs.
func AddRecentJob(config *model.AppConfig, path string) {
	recent := []string{path}
	for _, p := range config.RecentJobs {
		if p != path && len(recent) < MaxRecentJobs {
			recent = append(recent, p)
		}
	}
	config.RecentJobs = recent
}
