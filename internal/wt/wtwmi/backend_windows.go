//go:build windows

package wtwmi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/wintarget/wintarget/internal/wt"
)

// S_FALSE from CoInitializeEx means COM was already initialized on the
// calling thread.
const sFalse = 0x00000001

// Backend holds connections to the root\wmi and root\cimv2 namespaces
// on the local host. Close releases them.
type Backend struct {
	locator *ole.IDispatch
	wmi     *ole.IDispatch
	cim     *ole.IDispatch
}

// New connects to the WMI namespaces used by the iSCSI software
// target on the local machine.
func New() (*Backend, error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return nil, fmt.Errorf("failed to initialize COM: %w", err)
		}
	}

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		return nil, fmt.Errorf("failed to create WbemScripting.SWbemLocator: %w", err)
	}
	defer unknown.Release()

	locator, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("failed to query IDispatch on locator: %w", err)
	}

	b := &Backend{locator: locator}
	if b.wmi, err = connect(locator, `root\wmi`); err != nil {
		b.Close()
		return nil, err
	}
	if b.cim, err = connect(locator, `root\cimv2`); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func connect(locator *ole.IDispatch, namespace string) (*ole.IDispatch, error) {
	raw, err := oleutil.CallMethod(locator, "ConnectServer", ".", namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", namespace, err)
	}
	return raw.ToIDispatch(), nil
}

// Close releases the COM objects held by the backend.
func (b *Backend) Close() {
	if b.cim != nil {
		b.cim.Release()
		b.cim = nil
	}
	if b.wmi != nil {
		b.wmi.Release()
		b.wmi = nil
	}
	if b.locator != nil {
		b.locator.Release()
		b.locator = nil
	}
	ole.CoUninitialize()
}

func (b *Backend) QueryPortal() (wt.Portal, error) {
	items, err := query(b.wmi, "SELECT * FROM WT_Portal")
	if err != nil {
		return wt.Portal{}, fmt.Errorf("failed to query portal: %w", err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return wt.Portal{}, fmt.Errorf("iSCSI target portal: %w", wt.ErrNotFound)
	}

	address, err := stringProp(items[0], "Address")
	if err != nil {
		return wt.Portal{}, err
	}
	port, err := intProp(items[0], "Port")
	if err != nil {
		return wt.Portal{}, err
	}
	listening, err := boolProp(items[0], "Listen")
	if err != nil {
		return wt.Portal{}, err
	}
	return wt.Portal{Address: address, Port: port, Listening: listening}, nil
}

func (b *Backend) QueryHost(name string) (wt.Host, error) {
	items, err := query(b.wmi, "SELECT * FROM WT_Host WHERE HostName = "+quoteWQL(name))
	if err != nil {
		return wt.Host{}, fmt.Errorf("failed to query host %q: %w", name, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return wt.Host{}, fmt.Errorf("host %q: %w", name, wt.ErrNotFound)
	}

	hostName, err := stringProp(items[0], "HostName")
	if err != nil {
		return wt.Host{}, err
	}
	iqn, err := stringProp(items[0], "TargetIQN")
	if err != nil {
		return wt.Host{}, err
	}
	return wt.Host{Name: hostName, TargetIQN: iqn}, nil
}

func (b *Backend) CreateHost(name string) error {
	class, err := b.getClass("WT_Host")
	if err != nil {
		return err
	}
	defer class.Release()

	if _, err := oleutil.CallMethod(class, "NewHost", name); err != nil {
		return fmt.Errorf("failed to create host %q: %w", name, translate(err))
	}
	return nil
}

func (b *Backend) DeleteHost(name string) error {
	items, err := query(b.wmi, "SELECT * FROM WT_Host WHERE HostName = "+quoteWQL(name))
	if err != nil {
		return fmt.Errorf("failed to query host %q: %w", name, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("host %q: %w", name, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "Delete_"); err != nil {
		return fmt.Errorf("failed to delete host %q: %w", name, err)
	}
	return nil
}

func (b *Backend) RemoveAllDisks(hostName string) error {
	items, err := query(b.wmi, "SELECT * FROM WT_Host WHERE HostName = "+quoteWQL(hostName))
	if err != nil {
		return fmt.Errorf("failed to query host %q: %w", hostName, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("host %q: %w", hostName, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "RemoveAllWTDisks"); err != nil {
		return fmt.Errorf("failed to remove disks from host %q: %w", hostName, err)
	}
	return nil
}

func (b *Backend) AddDisk(hostName string, wtd int) error {
	items, err := query(b.wmi, "SELECT * FROM WT_Host WHERE HostName = "+quoteWQL(hostName))
	if err != nil {
		return fmt.Errorf("failed to query host %q: %w", hostName, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("host %q: %w", hostName, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "AddWTDisk", int32(wtd)); err != nil {
		return fmt.Errorf("failed to add disk %d to host %q: %w", wtd, hostName, err)
	}
	return nil
}

func (b *Backend) CreateDisk(devicePath, description string, sizeMB int64) error {
	class, err := b.getClass("WT_Disk")
	if err != nil {
		return err
	}
	defer class.Release()

	if _, err := oleutil.CallMethod(class, "NewWTDisk", devicePath, description, int32(sizeMB)); err != nil {
		return fmt.Errorf("failed to create disk %q at %q: %w", description, devicePath, translate(err))
	}
	return nil
}

func (b *Backend) LookupDisks(description string) ([]wt.Disk, error) {
	items, err := query(b.wmi, "SELECT * FROM WT_Disk WHERE Description = "+quoteWQL(description))
	if err != nil {
		return nil, fmt.Errorf("failed to query disks %q: %w", description, err)
	}
	defer releaseAll(items)

	disks := make([]wt.Disk, 0, len(items))
	for _, item := range items {
		wtd, err := intProp(item, "WTD")
		if err != nil {
			return nil, err
		}
		devicePath, err := stringProp(item, "DevicePath")
		if err != nil {
			return nil, err
		}
		size, err := int64Prop(item, "Size")
		if err != nil {
			return nil, err
		}
		disks = append(disks, wt.Disk{WTD: wtd, Description: description, DevicePath: devicePath, SizeMB: size})
	}
	return disks, nil
}

func (b *Backend) SetDiskDescription(wtd int, description string) error {
	items, err := query(b.wmi, fmt.Sprintf("SELECT * FROM WT_Disk WHERE WTD = %d", wtd))
	if err != nil {
		return fmt.Errorf("failed to query disk %d: %w", wtd, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}

	if _, err := oleutil.PutProperty(items[0], "Description", description); err != nil {
		return fmt.Errorf("failed to set description on disk %d: %w", wtd, err)
	}
	if _, err := oleutil.CallMethod(items[0], "Put_"); err != nil {
		return fmt.Errorf("failed to save disk %d: %w", wtd, err)
	}
	return nil
}

func (b *Backend) DeleteDisk(wtd int) error {
	items, err := query(b.wmi, fmt.Sprintf("SELECT * FROM WT_Disk WHERE WTD = %d", wtd))
	if err != nil {
		return fmt.Errorf("failed to query disk %d: %w", wtd, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "Delete_"); err != nil {
		return fmt.Errorf("failed to delete disk %d: %w", wtd, err)
	}
	return nil
}

func (b *Backend) ExtendDisk(wtd int, additionalMB int64) error {
	items, err := query(b.wmi, fmt.Sprintf("SELECT * FROM WT_Disk WHERE WTD = %d", wtd))
	if err != nil {
		return fmt.Errorf("failed to query disk %d: %w", wtd, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "Extend", int32(additionalMB)); err != nil {
		return fmt.Errorf("failed to extend disk %d by %d MB: %w", wtd, additionalMB, err)
	}
	return nil
}

// CreateSnapshot runs the static WT_Snapshot.Create method and returns
// the Id of the new snapshot. Create reports the Id through an output
// parameter, so it goes through ExecMethod_ instead of direct access.
func (b *Backend) CreateSnapshot(wtd int) (string, error) {
	class, err := b.getClass("WT_Snapshot")
	if err != nil {
		return "", err
	}
	defer class.Release()

	params, err := spawnMethodParams(class, "Create")
	if err != nil {
		return "", err
	}
	defer params.Release()
	if _, err := oleutil.PutProperty(params, "WTD", int32(wtd)); err != nil {
		return "", fmt.Errorf("failed to set WTD on Create parameters: %w", err)
	}

	outRaw, err := oleutil.CallMethod(class, "ExecMethod_", "Create", params)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot disk %d: %w", wtd, err)
	}
	out := outRaw.ToIDispatch()
	defer out.Release()

	return stringProp(out, "Id")
}

func (b *Backend) LookupSnapshots(description string) ([]wt.Snapshot, error) {
	items, err := query(b.wmi, "SELECT * FROM WT_Snapshot WHERE Description = "+quoteWQL(description))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots %q: %w", description, err)
	}
	defer releaseAll(items)

	snaps := make([]wt.Snapshot, 0, len(items))
	for _, item := range items {
		id, err := stringProp(item, "Id")
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, wt.Snapshot{ID: id, Description: description})
	}
	return snaps, nil
}

func (b *Backend) SetSnapshotDescription(id, description string) error {
	items, err := query(b.wmi, "SELECT * FROM WT_Snapshot WHERE Id = "+quoteWQL(id))
	if err != nil {
		return fmt.Errorf("failed to query snapshot %q: %w", id, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("snapshot %q: %w", id, wt.ErrNotFound)
	}

	if _, err := oleutil.PutProperty(items[0], "Description", description); err != nil {
		return fmt.Errorf("failed to set description on snapshot %q: %w", id, err)
	}
	if _, err := oleutil.CallMethod(items[0], "Put_"); err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", id, err)
	}
	return nil
}

func (b *Backend) DeleteSnapshot(id string) error {
	items, err := query(b.wmi, "SELECT * FROM WT_Snapshot WHERE Id = "+quoteWQL(id))
	if err != nil {
		return fmt.Errorf("failed to query snapshot %q: %w", id, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("snapshot %q: %w", id, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "Delete_"); err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", id, err)
	}
	return nil
}

// ExportSnapshot promotes a snapshot to a new WT_Disk and returns the
// WTD handle reported by the Export output parameter.
func (b *Backend) ExportSnapshot(id string) (int, error) {
	items, err := query(b.wmi, "SELECT * FROM WT_Snapshot WHERE Id = "+quoteWQL(id))
	if err != nil {
		return 0, fmt.Errorf("failed to query snapshot %q: %w", id, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return 0, fmt.Errorf("snapshot %q: %w", id, wt.ErrNotFound)
	}

	outRaw, err := oleutil.CallMethod(items[0], "ExecMethod_", "Export")
	if err != nil {
		return 0, fmt.Errorf("failed to export snapshot %q: %w", id, err)
	}
	out := outRaw.ToIDispatch()
	defer out.Release()

	return intProp(out, "WTD")
}

func (b *Backend) AddIDMethod(hostName string, method int, value string) error {
	class, err := b.getClass("WT_IDMethod")
	if err != nil {
		return err
	}
	defer class.Release()

	instRaw, err := oleutil.CallMethod(class, "SpawnInstance_")
	if err != nil {
		return fmt.Errorf("failed to spawn WT_IDMethod instance: %w", err)
	}
	inst := instRaw.ToIDispatch()
	defer inst.Release()

	if _, err := oleutil.PutProperty(inst, "HostName", hostName); err != nil {
		return fmt.Errorf("failed to set HostName: %w", err)
	}
	if _, err := oleutil.PutProperty(inst, "Method", int32(method)); err != nil {
		return fmt.Errorf("failed to set Method: %w", err)
	}
	if _, err := oleutil.PutProperty(inst, "Value", value); err != nil {
		return fmt.Errorf("failed to set Value: %w", err)
	}
	if _, err := oleutil.CallMethod(inst, "Put_"); err != nil {
		return fmt.Errorf("failed to save id method for host %q: %w", hostName, err)
	}
	return nil
}

func (b *Backend) DeleteIDMethod(hostName string, method int, value string) error {
	wql := fmt.Sprintf("SELECT * FROM WT_IDMethod WHERE HostName = %s AND Method = %d AND Value = %s",
		quoteWQL(hostName), method, quoteWQL(value))
	items, err := query(b.wmi, wql)
	if err != nil {
		return fmt.Errorf("failed to query id methods for host %q: %w", hostName, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return fmt.Errorf("id method %d=%q on host %q: %w", method, value, hostName, wt.ErrNotFound)
	}

	if _, err := oleutil.CallMethod(items[0], "Delete_"); err != nil {
		return fmt.Errorf("failed to delete id method for host %q: %w", hostName, err)
	}
	return nil
}

func (b *Backend) CopyFile(src, dst string) error {
	items, err := query(b.cim, "SELECT * FROM CIM_DataFile WHERE Name = "+quoteWQL(src))
	if err != nil {
		return fmt.Errorf("failed to query file %q: %w", src, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return nil
	}

	ret, err := oleutil.CallMethod(items[0], "Copy", dst)
	if err != nil {
		return fmt.Errorf("failed to copy %q to %q: %w", src, dst, err)
	}
	defer ret.Clear()
	if code := ret.Val; code != 0 {
		return fmt.Errorf("copying %q to %q returned code %d", src, dst, code)
	}
	return nil
}

func (b *Backend) DeleteFile(path string) error {
	items, err := query(b.cim, "SELECT * FROM CIM_DataFile WHERE Name = "+quoteWQL(path))
	if err != nil {
		return fmt.Errorf("failed to query file %q: %w", path, err)
	}
	defer releaseAll(items)
	if len(items) == 0 {
		return nil
	}

	ret, err := oleutil.CallMethod(items[0], "Delete")
	if err != nil {
		return fmt.Errorf("failed to delete file %q: %w", path, err)
	}
	defer ret.Clear()
	if code := ret.Val; code != 0 {
		return fmt.Errorf("deleting %q returned code %d", path, code)
	}
	return nil
}

func (b *Backend) getClass(name string) (*ole.IDispatch, error) {
	raw, err := oleutil.CallMethod(b.wmi, "Get", name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s class: %w", name, err)
	}
	return raw.ToIDispatch(), nil
}

// query runs a WQL query and returns every object in the result set.
// The caller owns the returned objects.
func query(service *ole.IDispatch, wql string) ([]*ole.IDispatch, error) {
	raw, err := oleutil.CallMethod(service, "ExecQuery", wql)
	if err != nil {
		return nil, err
	}
	result := raw.ToIDispatch()
	defer result.Release()

	countVar, err := oleutil.GetProperty(result, "Count")
	if err != nil {
		return nil, fmt.Errorf("failed to read result count: %w", err)
	}
	defer countVar.Clear()

	count := int(countVar.Val)
	items := make([]*ole.IDispatch, 0, count)
	for i := 0; i < count; i++ {
		itemRaw, err := oleutil.CallMethod(result, "ItemIndex", i)
		if err != nil {
			releaseAll(items)
			return nil, fmt.Errorf("failed to read result item %d: %w", i, err)
		}
		items = append(items, itemRaw.ToIDispatch())
	}
	return items, nil
}

func releaseAll(items []*ole.IDispatch) {
	for _, item := range items {
		item.Release()
	}
}

// spawnMethodParams builds an InParameters instance for a WMI method.
func spawnMethodParams(class *ole.IDispatch, method string) (*ole.IDispatch, error) {
	methodsRaw, err := oleutil.GetProperty(class, "Methods_")
	if err != nil {
		return nil, fmt.Errorf("failed to read Methods_: %w", err)
	}
	methods := methodsRaw.ToIDispatch()
	defer methods.Release()

	methodRaw, err := oleutil.CallMethod(methods, "Item", method)
	if err != nil {
		return nil, fmt.Errorf("failed to look up method %s: %w", method, err)
	}
	methodObj := methodRaw.ToIDispatch()
	defer methodObj.Release()

	inRaw, err := oleutil.GetProperty(methodObj, "InParameters")
	if err != nil {
		return nil, fmt.Errorf("failed to read InParameters of %s: %w", method, err)
	}
	in := inRaw.ToIDispatch()
	defer in.Release()

	spawnedRaw, err := oleutil.CallMethod(in, "SpawnInstance_")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn parameters for %s: %w", method, err)
	}
	return spawnedRaw.ToIDispatch(), nil
}

// translate maps COM exception text onto the package sentinels. The
// target provider reports a duplicate host or disk file as
// "The file exists".
func translate(err error) error {
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) && strings.Contains(oleErr.Description(), "The file exists") {
		return fmt.Errorf("%s: %w", strings.TrimSpace(oleErr.Description()), wt.ErrAlreadyExists)
	}
	return err
}

func stringProp(item *ole.IDispatch, name string) (string, error) {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer v.Clear()
	return v.ToString(), nil
}

func intProp(item *ole.IDispatch, name string) (int, error) {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer v.Clear()
	return int(v.Val), nil
}

func int64Prop(item *ole.IDispatch, name string) (int64, error) {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer v.Clear()

	// 64 bit WMI integers cross COM as strings.
	switch value := v.Value().(type) {
	case string:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("property %s is not an integer: %w", name, err)
		}
		return n, nil
	case int32:
		return int64(value), nil
	case int64:
		return value, nil
	default:
		return 0, fmt.Errorf("property %s has unexpected type %T", name, value)
	}
}

func boolProp(item *ole.IDispatch, name string) (bool, error) {
	v, err := oleutil.GetProperty(item, name)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer v.Clear()
	value, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s is not a boolean", name)
	}
	return value, nil
}
