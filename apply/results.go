package apply

import "github.com/joshuapare/regapply/pkg/types"

// OperationResult is the outcome of one operation against one image.
type OperationResult struct {
	// Op is the operation as parsed.
	Op types.Operation

	// Kind is the effective mutation kind. A Create whose target already
	// existed is reported as Modify; the write primitive is identical.
	Kind types.OpKind

	// Err is nil on success. Failed operations keep their source line
	// number in Op for diagnostics.
	Err error
}

// ImageResult summarizes one apply pass over one offline image.
type ImageResult struct {
	// Image is the mount root the operations were applied to.
	Image string

	// Succeeded and Failed count per-operation outcomes.
	Succeeded int
	Failed    int

	// Results holds every per-operation outcome in apply order.
	Results []OperationResult
}

// Failures returns the failed outcomes only.
func (r ImageResult) Failures() []OperationResult {
	var out []OperationResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (r *ImageResult) record(res OperationResult) {
	r.Results = append(r.Results, res)
	if res.Err != nil {
		r.Failed++
	} else {
		r.Succeeded++
	}
}
