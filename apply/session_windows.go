//go:build windows

package apply

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/joshuapare/regapply/internal/hivepath"
	"github.com/joshuapare/regapply/pkg/types"
)

// RegLoadKey/RegUnLoadKey are not surfaced by x/sys/windows/registry, so we
// bind them directly. Both operate on a named subkey of a root key, the
// load point, which is global to the machine for the lifetime of the load.
var (
	advapi32          = windows.NewLazySystemDLL("advapi32.dll")
	procRegLoadKeyW   = advapi32.NewProc("RegLoadKeyW")
	procRegUnLoadKeyW = advapi32.NewProc("RegUnLoadKeyW")
)

// windowsOpener loads offline hive files under HKLM\<loadpoint> via the
// Windows registry API.
type windowsOpener struct{}

func platformOpener() Opener { return windowsOpener{} }

var (
	privOnce sync.Once
	privErr  error
)

func (windowsOpener) Open(ctx context.Context, hv hivepath.Resolved, opts OpenOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Loading and unloading hives requires the backup/restore privilege
	// pair even for administrators; they are disabled by default.
	privOnce.Do(func() { privErr = enableBackupRestorePrivileges() })
	if privErr != nil {
		return nil, types.LoadError("enable backup/restore privileges", privErr)
	}

	if _, err := os.Stat(hv.File); err != nil {
		return nil, types.LoadError("hive file not accessible", err)
	}

	if opts.Backup {
		if _, err := backupHive(hv.File, opts.BackupDir); err != nil {
			return nil, types.LoadError("backup hive before load", err)
		}
	}

	if err := regLoadKey(hv.LoadPoint, hv.File); err != nil {
		return nil, types.LoadError("RegLoadKey "+hv.File, err)
	}
	return &winSession{loadPoint: hv.LoadPoint}, nil
}

// winSession addresses a hive loaded under HKLM\<loadPoint>.
type winSession struct {
	loadPoint string
	closed    bool
}

func (s *winSession) keyPath(key string) string {
	if key == "" {
		return s.loadPoint
	}
	return s.loadPoint + `\` + key
}

func (s *winSession) HasValue(key, name string) (bool, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, s.keyPath(key), registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer k.Close()

	_, _, err = k.GetValue(name, nil)
	switch {
	case err == nil, errors.Is(err, registry.ErrShortBuffer):
		return true, nil
	case errors.Is(err, registry.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (s *winSession) SetValue(key, name string, v types.Value) error {
	// RegCreateKeyEx creates every missing intermediate key along the path.
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, s.keyPath(key), registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer k.Close()

	switch val := v.(type) {
	case types.StringValue:
		return k.SetStringValue(name, string(val))
	case types.ExpandValue:
		return k.SetExpandStringValue(name, string(val))
	case types.DWORDValue:
		return k.SetDWordValue(name, uint32(val))
	case types.QWORDValue:
		return k.SetQWordValue(name, uint64(val))
	case types.BinaryValue:
		return k.SetBinaryValue(name, val)
	case types.MultiStringValue:
		return k.SetStringsValue(name, val)
	case nil:
		return fmt.Errorf("set %q: operation carries no value", name)
	default:
		return fmt.Errorf("set %q: unsupported value type %T", name, v)
	}
}

func (s *winSession) DeleteValue(key, name string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, s.keyPath(key), registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return err
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}

func (s *winSession) DeleteKey(key string) error {
	if key == "" {
		// Deleting the hive root means deleting everything under the load
		// point; the load point itself stays for the unload.
		return s.deleteChildren(s.loadPoint)
	}
	return deleteKeyRecursive(s.keyPath(key))
}

func (s *winSession) deleteChildren(path string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path,
		registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return err
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := deleteKeyRecursive(path + `\` + name); err != nil {
			return err
		}
	}
	valueNames, err := k.ReadValueNames(-1)
	if err != nil {
		return err
	}
	for _, name := range valueNames {
		if err := k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return err
		}
	}
	return nil
}

// deleteKeyRecursive removes path and its subtree. RegDeleteKey only
// handles leaf keys, so children go first.
func deleteKeyRecursive(path string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil
		}
		return err
	}
	names, err := k.ReadSubKeyNames(-1)
	k.Close()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := deleteKeyRecursive(path + `\` + name); err != nil {
			return err
		}
	}
	if err := registry.DeleteKey(registry.LOCAL_MACHINE, path); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}

func (s *winSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := regUnloadKey(s.loadPoint); err != nil {
		return types.LoadError("RegUnLoadKey "+s.loadPoint, err)
	}
	return nil
}

func enableBackupRestorePrivileges() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("open process token: %w", err)
	}
	defer token.Close()

	for _, name := range []string{"SeBackupPrivilege", "SeRestorePrivilege"} {
		namePtr, err := windows.UTF16PtrFromString(name)
		if err != nil {
			return err
		}
		var luid windows.LUID
		if err := windows.LookupPrivilegeValue(nil, namePtr, &luid); err != nil {
			return fmt.Errorf("lookup %s: %w", name, err)
		}
		tp := windows.Tokenprivileges{
			PrivilegeCount: 1,
			Privileges: [1]windows.LUIDAndAttributes{
				{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED},
			},
		}
		if err := windows.AdjustTokenPrivileges(token, false, &tp, 0, nil, nil); err != nil {
			return fmt.Errorf("enable %s: %w", name, err)
		}
	}
	return nil
}

func regLoadKey(loadPoint, file string) error {
	lp, err := windows.UTF16PtrFromString(loadPoint)
	if err != nil {
		return err
	}
	fp, err := windows.UTF16PtrFromString(file)
	if err != nil {
		return err
	}
	r0, _, _ := procRegLoadKeyW.Call(
		uintptr(windows.HKEY_LOCAL_MACHINE),
		uintptr(unsafe.Pointer(lp)),
		uintptr(unsafe.Pointer(fp)),
	)
	if r0 != 0 {
		return syscall.Errno(r0)
	}
	return nil
}

func regUnloadKey(loadPoint string) error {
	lp, err := windows.UTF16PtrFromString(loadPoint)
	if err != nil {
		return err
	}
	r0, _, _ := procRegUnLoadKeyW.Call(
		uintptr(windows.HKEY_LOCAL_MACHINE),
		uintptr(unsafe.Pointer(lp)),
	)
	if r0 != 0 {
		return syscall.Errno(r0)
	}
	return nil
}
