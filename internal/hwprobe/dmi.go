package hwprobe

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zcalusic/sysinfo"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// sysInfoFunc reads /sys/class/dmi/id. Replaced in tests.
var sysInfoFunc = func() sysinfo.SysInfo {
	var si sysinfo.SysInfo
	si.GetSysInfo()
	return si
}

// DMI reports SMBIOS system, baseboard, BIOS and chassis identity.
// Fields the kernel hides from unprivileged users are simply absent.
func DMI(_ context.Context, _ facts.Env) (facts.Facts, error) {
	return dmiFacts(sysInfoFunc()), nil
}

func dmiFacts(si sysinfo.SysInfo) facts.Facts {
	f := facts.Facts{}
	setIfNotEmpty(f, "dmi.system.manufacturer", si.Product.Vendor)
	setIfNotEmpty(f, "dmi.system.product_name", si.Product.Name)
	setIfNotEmpty(f, "dmi.system.version", si.Product.Version)
	setIfNotEmpty(f, "dmi.system.serial_number", si.Product.Serial)
	if id, ok := normalizeUUID(fmt.Sprint(si.Product.UUID)); ok {
		f["dmi.system.uuid"] = id
	}

	setIfNotEmpty(f, "dmi.baseboard.manufacturer", si.Board.Vendor)
	setIfNotEmpty(f, "dmi.baseboard.product_name", si.Board.Name)
	setIfNotEmpty(f, "dmi.baseboard.version", si.Board.Version)
	setIfNotEmpty(f, "dmi.baseboard.serial_number", si.Board.Serial)
	setIfNotEmpty(f, "dmi.baseboard.asset_tag", si.Board.AssetTag)

	setIfNotEmpty(f, "dmi.bios.vendor", si.BIOS.Vendor)
	setIfNotEmpty(f, "dmi.bios.version", si.BIOS.Version)
	setIfNotEmpty(f, "dmi.bios.release_date", si.BIOS.Date)

	setIfNotEmpty(f, "dmi.chassis.manufacturer", si.Chassis.Vendor)
	setIfNotEmpty(f, "dmi.chassis.version", si.Chassis.Version)
	setIfNotEmpty(f, "dmi.chassis.serial_number", si.Chassis.Serial)
	setIfNotEmpty(f, "dmi.chassis.asset_tag", si.Chassis.AssetTag)
	if si.Chassis.Type != 0 {
		f["dmi.chassis.type"] = si.Chassis.Type
	}
	return f
}

// normalizeUUID returns the canonical lowercase form of s. Unparseable
// and all-zero UUIDs (unset SMBIOS fields) are rejected.
func normalizeUUID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return "", false
	}
	return id.String(), true
}
