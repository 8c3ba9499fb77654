package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/stackdiagram/pkg/errors"
	"github.com/matzehuels/stackdiagram/pkg/observability"
)

// OutputPath returns the file path for one format: "<base>.<format>".
func OutputPath(base, format string) string {
	return base + "." + format
}

// CheckWritable verifies that files can be created next to base, i.e. that
// the parent directory exists, is a directory, and accepts new files.
// It leaves nothing behind.
func CheckWritable(base string) error {
	if err := errors.ValidateOutputPath(base); err != nil {
		return err
	}
	dir := filepath.Dir(base)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output directory %s", dir)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "output directory %s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".stackdiagram-probe-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output directory %s is not writable", dir)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// WriteArtifacts writes one file per format at "<base>.<format>" and returns
// the written paths in format order.
//
// Every format must have an artifact. Writes are staged in temporary files
// and renamed into place only once all of them succeeded; if a rename fails
// the files already renamed are removed, so a failed call leaves no output.
func WriteArtifacts(ctx context.Context, base string, formats []string, artifacts Artifacts) ([]string, error) {
	for _, f := range formats {
		if _, ok := artifacts[f]; !ok {
			return nil, errors.New(errors.ErrCodeInternal, "no artifact rendered for format %q", f)
		}
	}

	dir := filepath.Dir(base)
	staged := make([]string, 0, len(formats))
	cleanup := func() {
		for _, p := range staged {
			_ = os.Remove(p)
		}
	}

	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, err
		}
		tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%s.*.%s", filepath.Base(base), f))
		if err != nil {
			cleanup()
			return nil, errors.Wrap(errors.ErrCodeWrite, err, "stage %s", OutputPath(base, f))
		}
		staged = append(staged, tmp.Name())
		if _, err := tmp.Write(artifacts[f]); err != nil {
			_ = tmp.Close()
			cleanup()
			return nil, errors.Wrap(errors.ErrCodeWrite, err, "write %s", OutputPath(base, f))
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return nil, errors.Wrap(errors.ErrCodeWrite, err, "write %s", OutputPath(base, f))
		}
	}

	written := make([]string, 0, len(formats))
	for i, f := range formats {
		dst := OutputPath(base, f)
		if err := os.Rename(staged[i], dst); err != nil {
			for _, p := range written {
				_ = os.Remove(p)
			}
			staged = staged[i:]
			cleanup()
			return nil, errors.Wrap(errors.ErrCodeWrite, err, "write %s", dst)
		}
		_ = os.Chmod(dst, 0644)
		written = append(written, dst)
		observability.Render().OnWrite(ctx, dst, len(artifacts[f]))
	}
	return written, nil
}
