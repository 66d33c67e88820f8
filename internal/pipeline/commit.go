package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Commit sub-steps, in order.
const (
	StepBackup    = "backup"
	StepTempWrite = "temp_write"
	StepRename    = "rename"
	StepDirSync   = "dir_sync"
	StepCleanup   = "cleanup"
)

// commit backs up the live file, then replaces it with a rename so a crash
// at any point leaves either the old or the new file in place, never a mix.
func (p *Pipeline) commit(candidate []byte) error {
	current, err := os.ReadFile(p.livePath)
	if err != nil {
		return fmt.Errorf("read live source: %w", err)
	}
	mode := p.liveMode()

	if err := writeAtomic(p.backupPath, current, mode); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := p.step(StepBackup); err != nil {
		return err
	}

	tmp := p.livePath + TempSuffix
	if err := writeSynced(tmp, candidate, mode); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write candidate: %w", err)
	}
	if err := p.step(StepTempWrite); err != nil {
		return err
	}

	if err := os.Rename(tmp, p.livePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace live source: %w", err)
	}
	if err := p.step(StepRename); err != nil {
		return err
	}

	if err := syncDir(filepath.Dir(p.livePath)); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	if err := p.step(StepDirSync); err != nil {
		return err
	}

	if err := os.Remove(p.stagedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove staged candidate: %w", err)
	}
	return p.step(StepCleanup)
}

func (p *Pipeline) step(name string) error {
	if p.afterStep == nil {
		return nil
	}
	if err := p.afterStep(name); err != nil {
		return fmt.Errorf("after %s: %w", name, err)
	}
	return nil
}

// Recover removes leftovers of a run that died midway: the staged
// candidate and any temp files. The live file is never touched.
func (p *Pipeline) Recover() ([]string, error) {
	var removed []string
	for _, path := range []string{p.stagedPath, p.livePath + TempSuffix, p.backupPath + TempSuffix} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return removed, nil
}

// RestoreBackup copies the backup over the live file atomically.
func RestoreBackup(livePath string) error {
	backup, err := os.ReadFile(livePath + BackupSuffix)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(livePath); err == nil {
		mode = info.Mode().Perm()
	}
	if err := writeAtomic(livePath, backup, mode); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return nil
}

func writeSynced(path string, data []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + TempSuffix
	if err := writeSynced(tmp, data, mode); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
