//go:build !windows

package apply

import (
	"context"

	"github.com/joshuapare/regapply/internal/hivepath"
	"github.com/joshuapare/regapply/pkg/types"
)

// Offline hive loading goes through the Windows registry API; on other
// platforms the default opener refuses. Callers can still inject their own
// Opener (tests do).
type unsupportedOpener struct{}

func platformOpener() Opener { return unsupportedOpener{} }

func (unsupportedOpener) Open(context.Context, hivepath.Resolved, OpenOptions) (Session, error) {
	return nil, types.ErrWindowsOnly
}
