package ingest

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticList is a fixed work list, typically from SYNC_APP_IDS.
type StaticList []int64

func (l StaticList) AppIDs(context.Context) ([]int64, error) {
	return dedupe(l), nil
}

// FileList reads a YAML work list on every pass so edits apply without a
// restart:
//
//	apps:
//	  - id: 1675200
//	    note: Steam Deck
//	  - id: 570
type FileList struct {
	Path string
}

type workFile struct {
	Apps []struct {
		ID   int64  `yaml:"id"`
		Note string `yaml:"note"`
	} `yaml:"apps"`
}

func (f FileList) AppIDs(context.Context) ([]int64, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read work list: %w", err)
	}
	var wf workFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse work list %s: %w", f.Path, err)
	}
	ids := make([]int64, 0, len(wf.Apps))
	for _, a := range wf.Apps {
		if a.ID <= 0 {
			return nil, fmt.Errorf("work list %s: invalid app id %d", f.Path, a.ID)
		}
		ids = append(ids, a.ID)
	}
	return dedupe(ids), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
