package handlers

import (
	"context"

	"github.com/sanix-darker/localreview/internal/common"
	"github.com/sanix-darker/localreview/internal/core"
	"github.com/sanix-darker/localreview/internal/diffparse"
)

// ExtractChangesHandler reads the change set selected by req from the
// repository containing dir and builds one record per changed file. root is
// the repository worktree.
func ExtractChangesHandler(
	ctx context.Context,
	dir string,
	req core.ChangeRequest,
) (records []diffparse.ChangeRecord, root string, err error) {
	src, err := core.OpenRepository(dir)
	if err != nil {
		return nil, "", err
	}

	diffs, err := src.Changes(ctx, req)
	if err != nil {
		return nil, "", err
	}

	probe := diffparse.OSProber{Root: src.Root}
	records = make([]diffparse.ChangeRecord, 0, len(diffs))
	for _, d := range diffs {
		if rec, ok := diffparse.Extract(d.Path, d.Raw, d.Stats, probe); ok {
			records = append(records, rec)
		}
	}
	return records, src.Root, nil
}

// ExtractFilePairHandler builds the record of the difference between two
// files given as "old,new". The record is named after the new file; no
// record means the files are identical.
func ExtractFilePairHandler(inputString string) ([]diffparse.ChangeRecord, error) {
	oldPath, newPath, err := common.ExtractFilePair(inputString)
	if err != nil {
		return nil, err
	}

	raw, err := core.BuildFileDiff(oldPath, newPath)
	if err != nil {
		return nil, err
	}

	rec, ok := diffparse.Extract(newPath, raw, nil, diffparse.OSProber{})
	if !ok {
		return nil, nil
	}
	return []diffparse.ChangeRecord{rec}, nil
}
