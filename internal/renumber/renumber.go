package renumber

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/episode-kit/internal/fsops"
)

const (
	emptyExtensionErrorMessage = "extension must not be empty"
	prefixSeparatorErrorFormat = "prefix %q must not contain a path separator"
	notDirectoryDetail         = "path is not a directory"
	noMatchesDetailFormat      = "no files matching %s"
	alreadyCorrectDetailFormat = "already has sequential id %d"
	stagingTemporaryNameFormat = ".%s.renumber-%d"
	restoreBlockedErrorFormat  = "original name is taken, file left at %s"
	restoreFailedErrorFormat   = "restore from %s: %v"
)

// Options toggles the optional behaviors of a pass.
type Options struct {
	// Staged renames through temporary names so that permutations of
	// existing ids never collide with files that are about to move.
	Staged bool
	DryRun bool
}

// Renumberer renames {prefix}{id}.{ext} files to the dense range 0..N-1.
type Renumberer struct {
	ops     fsops.Ops
	logger  *zap.Logger
	options Options
	now     func() time.Time
}

func New(ops fsops.Ops, logger *zap.Logger, options Options) Renumberer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Renumberer{ops: ops, logger: logger, options: options, now: time.Now}
}

type move struct {
	candidate Candidate
	position  int
	target    string
	temporary string
}

// Run performs one pass over directory. It never returns an error: every
// condition, including a missing directory, is recorded in the report.
func (r Renumberer) Run(directory string, pattern Pattern) Report {
	report := Report{
		Directory: directory,
		Pattern:   pattern,
		DryRun:    r.options.DryRun,
		Staged:    r.options.Staged,
	}

	candidates, skipped, scanErr := Scan(r.ops, directory, pattern)
	if scanErr != nil {
		kind := KindUnreadable
		if errors.Is(scanErr, ErrDirectoryNotFound) {
			kind = KindNotFound
		}
		r.logger.Warn("renumber pass aborted", zap.String("directory", directory), zap.Error(scanErr))
		report.add(Outcome{Kind: kind, Source: directory, Err: scanErr})
		return report
	}
	report.Candidates = len(candidates)
	report.Outcomes = append(report.Outcomes, skipped...)

	if len(candidates) == 0 {
		report.add(Outcome{Kind: KindNoMatches, Detail: fmt.Sprintf(noMatchesDetailFormat, pattern.Glob())})
		return report
	}

	outcomes := make([]Outcome, len(candidates))
	var moves []*move
	for position, candidate := range candidates {
		if candidate.ID == uint64(position) {
			outcomes[position] = Outcome{
				Kind:   KindAlreadyCorrect,
				Source: candidate.Name,
				Detail: fmt.Sprintf(alreadyCorrectDetailFormat, candidate.ID),
			}
			continue
		}
		target := pattern.FileName(position)
		moves = append(moves, &move{
			candidate: candidate,
			position:  position,
			target:    target,
		})
	}

	if r.options.Staged {
		r.applyStaged(directory, moves, outcomes)
	} else {
		r.applyInPlace(directory, moves, outcomes)
	}

	report.Outcomes = append(report.Outcomes, outcomes...)
	r.logger.Info("renumber pass finished",
		zap.String("directory", directory),
		zap.Int("candidates", report.Candidates),
		zap.Int("renamed", report.Count(KindRenamed)),
		zap.Int("collisions", report.Count(KindCollision)),
		zap.Int("failed", report.Count(KindFailed)),
		zap.Bool("dry_run", r.options.DryRun),
	)
	return report
}

// Scan lists directory and returns its candidates sorted by id, plus a
// skipped outcome for every file that matches prefix and extension but
// carries an unusable id.
func Scan(ops fsops.Ops, directory string, pattern Pattern) ([]Candidate, []Outcome, error) {
	isDir, statErr := ops.IsDir(directory)
	if statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, directory)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrDirectoryUnreadable, statErr)
	}
	if !isDir {
		return nil, nil, fmt.Errorf("%w: %s", ErrDirectoryUnreadable, notDirectoryDetail)
	}

	files, listErr := ops.ListFiles(directory)
	if listErr != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDirectoryUnreadable, listErr)
	}

	var (
		candidates []Candidate
		skipped    []Outcome
	)
	for _, file := range files {
		name := file.BaseName + file.Extension
		id, matched, matchErr := pattern.Match(name)
		if !matched {
			continue
		}
		if matchErr != nil {
			skipped = append(skipped, Outcome{Kind: KindSkipped, Source: name, Detail: matchErr.Error(), Err: matchErr})
			continue
		}
		candidates = append(candidates, Candidate{Path: file.Path, Name: name, ID: id})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates, skipped, nil
}

// applyInPlace checks each target and then renames onto it. The directory
// must not be modified by anyone else during the pass.
func (r Renumberer) applyInPlace(directory string, moves []*move, outcomes []Outcome) {
	view := newNamespace(r.ops, directory)
	for _, m := range moves {
		source := m.candidate.Name
		if view.occupied(m.target, m.candidate.Path) {
			outcomes[m.position] = collisionOutcome(m)
			r.logger.Debug("rename collision", zap.String("source", source), zap.String("target", m.target))
			continue
		}
		if r.options.DryRun {
			view.rename(source, m.target)
			outcomes[m.position] = Outcome{Kind: KindPlanned, Source: source, Target: m.target}
			continue
		}
		if err := r.ops.MoveFile(m.candidate.Path, filepath.Join(directory, m.target)); err != nil {
			outcomes[m.position] = Outcome{Kind: KindFailed, Source: source, Target: m.target, Err: err}
			r.logger.Debug("rename failed", zap.String("source", source), zap.Error(err))
			continue
		}
		outcomes[m.position] = Outcome{Kind: KindRenamed, Source: source, Target: m.target}
		r.logger.Debug("renamed", zap.String("source", source), zap.String("target", m.target))
	}
}

// applyStaged renames in two phases. Targets only collide with files that
// are not themselves moving; colliding moves are dropped until the set of
// remaining moves is stable because a dropped move keeps its source name.
func (r Renumberer) applyStaged(directory string, moves []*move, outcomes []Outcome) {
	view := newNamespace(r.ops, directory)
	active := moves
	for {
		moving := make(map[string]bool, len(active))
		for _, m := range active {
			moving[m.candidate.Name] = true
		}
		var kept []*move
		for _, m := range active {
			if !moving[m.target] && view.occupied(m.target, m.candidate.Path) {
				outcomes[m.position] = collisionOutcome(m)
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == len(active) {
			break
		}
		active = kept
	}

	if r.options.DryRun {
		for _, m := range active {
			outcomes[m.position] = Outcome{Kind: KindPlanned, Source: m.candidate.Name, Target: m.target}
		}
		return
	}

	stamp := r.now().UnixNano()
	for index, m := range active {
		m.temporary = r.temporaryPath(directory, m.candidate.Name, stamp)
		if err := r.ops.MoveFile(m.candidate.Path, m.temporary); err != nil {
			r.logger.Warn("staging failed, rolling back", zap.String("source", m.candidate.Name), zap.Error(err))
			for _, aborted := range active {
				outcomes[aborted.position] = Outcome{
					Kind:   KindFailed,
					Source: aborted.candidate.Name,
					Target: aborted.target,
					Err:    ErrStagingAborted,
				}
			}
			for back := index - 1; back >= 0; back-- {
				if restoreErr := r.restore(active[back]); restoreErr != nil {
					outcomes[active[back].position].Detail = restoreErr.Error()
					r.logger.Warn("rollback failed", zap.String("source", active[back].candidate.Name), zap.Error(restoreErr))
				}
			}
			outcomes[m.position].Err = fmt.Errorf("%w: %v", ErrStagingAborted, err)
			return
		}
	}

	for _, m := range active {
		source := m.candidate.Name
		targetPath := filepath.Join(directory, m.target)
		if r.ops.FileExists(targetPath) {
			outcome := collisionOutcome(m)
			if restoreErr := r.restore(m); restoreErr != nil {
				outcome.Detail = restoreErr.Error()
			}
			outcomes[m.position] = outcome
			continue
		}
		if err := r.ops.MoveFile(m.temporary, targetPath); err != nil {
			outcome := Outcome{Kind: KindFailed, Source: source, Target: m.target, Err: err}
			if restoreErr := r.restore(m); restoreErr != nil {
				outcome.Detail = restoreErr.Error()
			}
			outcomes[m.position] = outcome
			continue
		}
		outcomes[m.position] = Outcome{Kind: KindRenamed, Source: source, Target: m.target}
		r.logger.Debug("renamed", zap.String("source", source), zap.String("target", m.target))
	}
}

// restore moves a staged file back to its original name unless that name
// has since been taken by another target.
func (r Renumberer) restore(m *move) error {
	if r.ops.FileExists(m.candidate.Path) {
		return fmt.Errorf(restoreBlockedErrorFormat, filepath.Base(m.temporary))
	}
	if err := r.ops.MoveFile(m.temporary, m.candidate.Path); err != nil {
		return fmt.Errorf(restoreFailedErrorFormat, filepath.Base(m.temporary), err)
	}
	return nil
}

func (r Renumberer) temporaryPath(directory, name string, stamp int64) string {
	candidate := filepath.Join(directory, fmt.Sprintf(stagingTemporaryNameFormat, name, stamp))
	for i := 0; r.ops.FileExists(candidate); i++ {
		candidate = filepath.Join(directory, fmt.Sprintf(stagingTemporaryNameFormat+"-%d", name, stamp, i))
	}
	return candidate
}

func collisionOutcome(m *move) Outcome {
	return Outcome{Kind: KindCollision, Source: m.candidate.Name, Target: m.target, Err: ErrRenameCollision}
}

// namespace answers "is this name taken" against the real directory plus
// the renames a dry run has pretended to perform.
type namespace struct {
	ops       fsops.Ops
	directory string
	added     map[string]bool
	removed   map[string]bool
}

func newNamespace(ops fsops.Ops, directory string) *namespace {
	return &namespace{ops: ops, directory: directory, added: map[string]bool{}, removed: map[string]bool{}}
}

func (n *namespace) occupied(name string, sourcePath string) bool {
	if n.added[name] {
		return true
	}
	if n.removed[name] {
		return false
	}
	targetInfo, err := n.ops.FS.Lstat(filepath.Join(n.directory, name))
	if err != nil {
		return false
	}
	sourceInfo, err := n.ops.FS.Lstat(sourcePath)
	if err == nil && n.ops.FS.SameFile(sourceInfo, targetInfo) {
		return false
	}
	return true
}

func (n *namespace) rename(from, to string) {
	delete(n.added, from)
	n.removed[from] = true
	delete(n.removed, to)
	n.added[to] = true
}
