package main

import (
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/winnow/pkg/winnow/config"
	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/spf13/viper"
)

// buildCriteria assembles a validated Criteria from CLI flags, config and
// the positional path argument. Configuration errors surface here,
// synchronously, before any unit of work starts.
func buildCriteria(args []string, action criteria.Action) (*criteria.Criteria, error) {
	scanPath := viper.GetString("default_path")
	if len(args) > 0 {
		scanPath = args[0]
	}
	expanded, err := config.ExpandPath(scanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path: %w", err)
	}
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	field, err := criteria.ParseTimeField(viper.GetString("time_field"))
	if err != nil {
		return nil, err
	}
	mode, err := criteria.ParseWindowMode(viper.GetString("mode"))
	if err != nil {
		return nil, err
	}

	startStr := viper.GetString("start")
	if startStr == "" {
		return nil, fmt.Errorf("%w: --start is required", criteria.ErrBadWindow)
	}
	start, err := criteria.ParseDate(startStr)
	if err != nil {
		return nil, err
	}

	var end = start
	if mode == criteria.Between {
		endStr := viper.GetString("end")
		if endStr == "" {
			return nil, fmt.Errorf("%w: --end is required for between mode", criteria.ErrBadWindow)
		}
		if end, err = criteria.ParseDate(endStr); err != nil {
			return nil, err
		}
	}

	include := criteria.SplitPatterns(viper.GetString("include_raw"))
	if len(include) == 0 {
		include = viper.GetStringSlice("include")
	}
	exclude := criteria.SplitPatterns(viper.GetString("exclude_raw"))
	if len(exclude) == 0 {
		exclude = viper.GetStringSlice("exclude")
	}

	return criteria.New(absPath, field, mode, start, end,
		include, exclude, viper.GetBool("skip_quarantine"), action)
}

// previewLimit returns the display cap for hits.
func previewLimit() int {
	if n := viper.GetInt("limit"); n > 0 {
		return n
	}
	if n := viper.GetInt("preview_limit"); n > 0 {
		return n
	}
	return config.DefaultPreviewLimit
}
