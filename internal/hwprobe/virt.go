package hwprobe

import (
	"context"
	"strings"

	"github.com/nikicat/rhsm-facts/internal/facts"
)

// hypervisorVendors maps SMBIOS system manufacturers to a host type.
var hypervisorVendors = map[string]string{
	"QEMU":          "kvm",
	"VMware, Inc.":  "vmware",
	"Xen":           "xen",
	"innotek GmbH":  "virtualbox",
	"Parallels":     "parallels",
	"Amazon EC2":    "kvm",
	"Google":        "kvm",
	"Red Hat":       "kvm",
	"oVirt":         "kvm",
	"Nutanix":       "ahv",
	"OpenStack":     "kvm",
	"Bochs":         "bochs",
	"BHYVE":         "bhyve",
	"DigitalOcean":  "kvm",
	"Scaleway":      "kvm",
	"Alibaba Cloud": "kvm",
}

// Virt guesses virt.is_guest and virt.host_type from the DMI facts of the
// previous collection run. Without prior DMI data it reports nothing.
func Virt(_ context.Context, env facts.Env) (facts.Facts, error) {
	vendor, _ := env.Prior["dmi.system.manufacturer"].(string)
	product, _ := env.Prior["dmi.system.product_name"].(string)
	if vendor == "" && product == "" {
		return facts.Facts{}, nil
	}

	if hostType, ok := hostTypeFor(vendor, product); ok {
		return facts.Facts{"virt.is_guest": true, "virt.host_type": hostType}, nil
	}
	return facts.Facts{"virt.is_guest": false}, nil
}

func hostTypeFor(vendor, product string) (string, bool) {
	if strings.HasPrefix(vendor, "Microsoft") && product == "Virtual Machine" {
		return "hyperv", true
	}
	for prefix, hostType := range hypervisorVendors {
		if strings.HasPrefix(vendor, prefix) {
			return hostType, true
		}
	}
	if strings.Contains(product, "KVM") || strings.HasPrefix(product, "Standard PC") {
		return "kvm", true
	}
	return "", false
}
