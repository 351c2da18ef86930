// Package apply executes parsed registry operations against the hive files
// of offline Windows images.
//
// Each image is processed sequentially. Operations are grouped by resolved
// hive file so every hive is loaded exactly once per image; within a group
// they run in source order, and a failed operation leaves every previously
// applied one durable. Sessions are released on every exit path; a load
// point is a global named resource and must never dangle.
package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/regapply/internal/hivepath"
	"github.com/joshuapare/regapply/pkg/types"
)

// resolvedOp pairs an operation with its hive resolution for one image.
type resolvedOp struct {
	op types.Operation
	hv hivepath.Resolved
}

// hiveGroup is the ordered batch of operations for one hive file.
type hiveGroup struct {
	file string
	ops  []resolvedOp
}

// Apply runs ops against each image in order and reports per-image results.
//
// Validation is fail-fast: every operation must carry a resolvable hive
// root, and nothing is mutated until the whole batch validates. Dangerous
// key deletions (a hive root or a whole top-level area) are warned about
// but not blocked; silently refusing them would hide operator intent.
//
// A hive that fails to load fails all of its operations; other hives are
// unaffected. Context cancellation is honored between operations and
// between hives, never mid-operation.
func Apply(ctx context.Context, images []string, ops []types.Operation, opts Options) ([]ImageResult, error) {
	log := opts.logger()
	opener := opts.opener()

	if err := validate(ops, log); err != nil {
		return nil, err
	}

	results := make([]ImageResult, 0, len(images))
	for _, image := range images {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := applyToImage(ctx, image, ops, opener, opts, log)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// validate checks the whole batch before any hive is touched.
func validate(ops []types.Operation, log logrus.FieldLogger) error {
	for _, op := range ops {
		hv, err := hivepath.Resolve("", op.Hive, op.Key)
		if err != nil {
			return types.ValidationError(
				fmt.Sprintf("line %d: %s", op.SourceLineNumber, op.Path()), err)
		}
		if op.Kind == types.OpRemoveKey {
			switch {
			case hv.Key == "":
				log.Warnf("line %d: deleting the entire %s hive root", op.SourceLineNumber, hv.Root)
			case !strings.Contains(hv.Key, `\`):
				log.Warnf("line %d: deleting top-level area %s\\%s", op.SourceLineNumber, hv.Root, hv.Key)
			}
		}
	}
	return nil
}

func applyToImage(ctx context.Context, image string, ops []types.Operation,
	opener Opener, opts Options, log logrus.FieldLogger,
) (ImageResult, error) {
	result := ImageResult{Image: image}
	log.Infof("applying %d operation(s) to image %s", len(ops), image)

	for _, group := range groupByHive(image, ops) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := applyGroup(ctx, group, opener, opts, log, &result); err != nil {
			return result, err
		}
	}

	log.Infof("image %s: %d succeeded, %d failed", image, result.Succeeded, result.Failed)
	return result, nil
}

// groupByHive buckets operations by resolved hive file, preserving both the
// first-appearance order of hives and the source order within each hive.
func groupByHive(image string, ops []types.Operation) []hiveGroup {
	var groups []hiveGroup
	index := make(map[string]int)
	for _, op := range ops {
		// Already validated; resolution against a concrete root cannot
		// introduce new errors, only prefix the file path.
		hv, err := hivepath.Resolve(image, op.Hive, op.Key)
		if err != nil {
			continue
		}
		i, ok := index[hv.File]
		if !ok {
			i = len(groups)
			index[hv.File] = i
			groups = append(groups, hiveGroup{file: hv.File})
		}
		groups[i].ops = append(groups[i].ops, resolvedOp{op: op, hv: hv})
	}
	return groups
}

// applyGroup loads one hive, applies its operations in order, and always
// releases the session. The returned error is only for context
// cancellation; operation failures live in result.
func applyGroup(ctx context.Context, group hiveGroup, opener Opener,
	opts Options, log logrus.FieldLogger, result *ImageResult,
) error {
	openOpts := OpenOptions{Backup: opts.Backup, BackupDir: opts.BackupDir}

	sess, err := opener.Open(ctx, group.ops[0].hv, openOpts)
	if err != nil {
		loadErr := types.LoadError("load hive "+group.file, err)
		log.Errorf("%v; failing %d operation(s)", loadErr, len(group.ops))
		for _, r := range group.ops {
			result.record(OperationResult{Op: r.op, Kind: r.op.Kind, Err: loadErr})
		}
		return nil
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Errorf("unload hive %s: %v", group.file, cerr)
		}
	}()

	log.Debugf("loaded hive %s (%d operation(s))", group.file, len(group.ops))

	for i, r := range group.ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := applyOne(sess, r)
		result.record(res)
		if res.Err != nil {
			log.Warnf("line %d: %s %s: %v", r.op.SourceLineNumber, res.Kind, r.op.Path(), res.Err)
			if !opts.ContinueOnError {
				log.Warnf("stopping hive %s after first failure (%d operation(s) skipped)",
					group.file, len(group.ops)-i-1)
				return nil
			}
			continue
		}
		log.Debugf("line %d: %s %s", r.op.SourceLineNumber, res.Kind, r.op.Path())
	}
	return nil
}

// applyOne performs a single mutation within an open session.
func applyOne(sess Session, r resolvedOp) OperationResult {
	op := r.op
	key := r.hv.Key
	res := OperationResult{Op: op, Kind: op.Kind}

	switch op.Kind {
	case types.OpCreate, types.OpModify:
		if op.Kind == types.OpCreate {
			// "Create" in .reg text means "ensure present": when the value
			// already exists this is a modification, and the report should
			// say so. Same write primitive either way.
			exists, err := sess.HasValue(key, op.ValueName)
			if err != nil {
				res.Err = err
				return res
			}
			if exists {
				res.Kind = types.OpModify
			}
		}
		res.Err = sess.SetValue(key, op.ValueName, op.Value)
	case types.OpRemove:
		res.Err = sess.DeleteValue(key, op.ValueName)
	case types.OpRemoveKey:
		res.Err = sess.DeleteKey(key)
	default:
		res.Err = fmt.Errorf("unknown operation kind %d", op.Kind)
	}
	return res
}
